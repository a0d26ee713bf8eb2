package id

import (
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULID order ids. Ids are derived from the simulated
// event time and a seeded entropy source, so replaying the same input with
// the same seed yields the same ids.
//
// ulid.Monotonic keeps ids generated within the same millisecond
// lexicographically increasing. A Generator is not safe for concurrent use.
type Generator struct {
	entropy io.Reader
	last    uint64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// New returns an id stamped with t. Times earlier than a previous call are
// clamped forward so ids never sort backwards.
func (g *Generator) New(t time.Time) (string, error) {
	ms := ulid.Timestamp(t.UTC())
	if ms < g.last {
		ms = g.last
	}
	g.last = ms

	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
