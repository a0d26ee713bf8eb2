package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/unicode"
)

func TestReadCSV(t *testing.T) {
	in := `time,open,high,low,close,volume
2024-01-02,185.10,186.00,184.20,185.64,1000

2024-01-03T16:00:00Z,185.64,187.00,183.00,184.25,2000.5
`
	bars, err := ReadCSV(strings.NewReader(in), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "AAPL", bars[0].Symbol)
	assert.True(t, bars[0].Time.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "185.64", bars[0].Close.String())
	assert.True(t, bars[1].Volume.Equal(decimal.RequireFromString("2000.5")))
	assert.True(t, bars[1].Time.Equal(time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC)))
}

func TestReadCSVByteOrderMarks(t *testing.T) {
	in := "date,open,high,low,close,volume\r\n2024-01-02,10,11,9,10.5,100\r\n"

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(in)
	require.NoError(t, err)

	for name, data := range map[string]string{
		"utf8 bom":  "\ufeff" + in,
		"utf16 bom": utf16,
	} {
		t.Run(name, func(t *testing.T) {
			bars, err := ReadCSV(strings.NewReader(data), "SPY")
			require.NoError(t, err)
			require.Len(t, bars, 1)
			assert.Equal(t, "10.5", bars[0].Close.String())
			assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
		})
	}
}

func TestReadCSVNoHeader(t *testing.T) {
	bars, err := ReadCSV(strings.NewReader("2024-01-02,1,2,0.5,1.5,10\n"), "X")
	require.NoError(t, err)
	require.Len(t, bars, 1)
}

func TestReadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"short row":  "2024-01-02,1,2,3\n",
		"bad time":   "yesterday,1,2,3,4,5\n",
		"bad price":  "2024-01-02,1,2,x,4,5\n",
		"bad volume": "2024-01-02,1,2,3,4,lots\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in), "AAPL")
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"),
		[]byte("time,open,high,low,close,volume\n2024-01-02,1,1,1,1,1\n"), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	bars, err := LoadDir(dir, []string{"AAPL", "MSFT"}, zap.New(core))
	require.NoError(t, err)

	assert.Len(t, bars["AAPL"], 1)
	assert.Empty(t, bars["MSFT"])
	assert.Equal(t, 1, logs.FilterMessage("no price data file for symbol").Len())
}

func TestLoadDirBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte("2024-01-02,1\n"), 0o644))

	_, err := LoadDir(dir, []string{"AAPL"}, nil)
	assert.Error(t, err)
}
