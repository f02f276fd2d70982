package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"backtest_go/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Accepted timestamp layouts, tried in order. Layouts without a zone parse as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp with optional fractional seconds and zone.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ReadCSV parses `timestamp,symbol,price` rows (columns located by header name)
// and returns them sorted ascending by timestamp. Rows with equal timestamps keep
// file order.
func ReadCSV(r io.Reader) ([]domain.MarketDataPoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	var idx [3]int
	for i, name := range []string{"timestamp", "symbol", "price"} {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		idx[i] = c
	}

	var points []domain.MarketDataPoint
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := ParseTimestamp(rec[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rec[idx[2]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q: %w", line, rec[idx[2]], err)
		}

		points = append(points, domain.MarketDataPoint{
			Timestamp: ts,
			Symbol:    strings.TrimSpace(rec[idx[1]]),
			Price:     price.InexactFloat64(),
		})
	}

	SortTicks(points)
	return points, nil
}

// LoadCSV reads the CSV file at path.
func LoadCSV(path string) ([]domain.MarketDataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	points, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// WriteCSV writes ticks in the format ReadCSV accepts.
func WriteCSV(w io.Writer, ticks []domain.MarketDataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "symbol", "price"}); err != nil {
		return err
	}
	for _, t := range ticks {
		rec := []string{
			t.Timestamp.Format(time.RFC3339Nano),
			t.Symbol,
			decimal.NewFromFloat(t.Price).String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SortTicks orders ticks ascending by timestamp, keeping the relative order of equal stamps.
func SortTicks(ticks []domain.MarketDataPoint) {
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})
}
