package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSV reads OHLCV rows for one symbol:
//
//	time,open,high,low,close,volume
//
// time is RFC3339 or a plain date (2006-01-02, taken as UTC midnight).
// A single header row ("time,...") is allowed and empty rows are skipped.
// Prices are parsed as exact decimals. Spreadsheet exports with a UTF-8 or
// UTF-16 byte order mark are decoded to plain UTF-8 first.
func ReadCSV(r io.Reader, symbol string) ([]market.Bar, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		bars     []market.Bar
		sawFirst bool
		line     int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") ||
				strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") ||
				strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		b, err := parseBarRow(row, symbol)
		if err != nil {
			return nil, fmt.Errorf("feed: %s line %d: %w", symbol, line, err)
		}
		bars = append(bars, b)
	}
}

// LoadCSV reads a symbol's bars from a file.
func LoadCSV(path, symbol string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, symbol)
}

// LoadDir loads <dir>/<SYMBOL>.csv for every symbol. A missing file is not an
// error: the symbol gets an empty series and a warning is logged.
func LoadDir(dir string, symbols []string, log *zap.Logger) (map[string][]market.Bar, error) {
	if log == nil {
		log = zap.NewNop()
	}
	out := make(map[string][]market.Bar, len(symbols))
	for _, sym := range symbols {
		path := filepath.Join(dir, sym+".csv")
		bars, err := LoadCSV(path, sym)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("no price data file for symbol", zap.String("symbol", sym), zap.String("path", path))
			out[sym] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Info("loaded price bars", zap.String("symbol", sym), zap.Int("bars", len(bars)))
		out[sym] = bars
	}
	return out, nil
}

func parseBarRow(row []string, symbol string) (market.Bar, error) {
	if len(row) < 6 {
		return market.Bar{}, fmt.Errorf("want 6 columns, got %d", len(row))
	}

	t, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return market.Bar{}, err
	}

	var vals [5]decimal.Decimal
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := range vals {
		v, err := decimal.NewFromString(strings.TrimSpace(row[i+1]))
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", names[i], row[i+1], err)
		}
		vals[i] = v
	}

	return market.Bar{
		Symbol: symbol,
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
	}
	return t, nil
}
