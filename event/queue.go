package event

// Sink accepts events. Every component that emits events holds a Sink.
type Sink interface {
	Put(Event)
}

// Queue is a FIFO buffer of events. Any component may Put; only the engine
// drains it with Get. Queue is not safe for concurrent use: the backtest runs
// on a single goroutine.
type Queue struct {
	items []Event
	head  int
}

func NewQueue() *Queue {
	return &Queue{}
}

// Put appends e to the tail.
func (q *Queue) Put(e Event) {
	q.items = append(q.items, e)
}

// Get removes and returns the oldest event. It never blocks; ok is false when
// the queue is empty.
func (q *Queue) Get() (e Event, ok bool) {
	if q.head >= len(q.items) {
		return nil, false
	}
	e = q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// Reclaim the backing array once fully drained.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return e, true
}

func (q *Queue) Empty() bool {
	return q.Len() == 0
}

func (q *Queue) Len() int {
	return len(q.items) - q.head
}
