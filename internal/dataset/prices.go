package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// dateLayouts are the timestamp shapes the CSV sources are known to carry.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inRange checks a day against optional inclusive YYYY-MM-DD bounds.
func inRange(day, start, end string) bool {
	if start != "" && day < start {
		return false
	}
	if end != "" && day > end {
		return false
	}
	return true
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func field(record []string, idx map[string]int, column string) (string, bool) {
	i, ok := idx[column]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

// CSVPriceSource loads daily price rows from the configured CSV file.
type CSVPriceSource struct {
	profile PriceProfile
	log     *logger.Logger
}

func NewCSVPriceSource(profile Profile, baseLog *logger.Logger) *CSVPriceSource {
	return &CSVPriceSource{
		profile: profile.Prices,
		log:     baseLog.With("source", "CSVPrices"),
	}
}

func (s *CSVPriceSource) LoadPrices(ctx context.Context, ticker, start, end string) ([]types.PriceRow, error) {
	f, err := os.Open(s.profile.Path)
	if err != nil {
		return nil, fmt.Errorf("open price csv %s: %w", s.profile.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read price csv header: %w", err)
	}
	idx := headerIndex(header)
	cols := s.profile.Columns
	for _, required := range []string{cols.Date, cols.Ticker, cols.Close, cols.Volume} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("price csv missing required column %q", required)
		}
	}

	var (
		rows    []types.PriceRow
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		name, _ := field(record, idx, cols.Ticker)
		if name != ticker {
			continue
		}
		rawDate, _ := field(record, idx, cols.Date)
		parsed, ok := parseDate(rawDate)
		if !ok {
			skipped++
			continue
		}
		day := parsed.Format("2006-01-02")
		if !inRange(day, start, end) {
			continue
		}

		closeRaw, _ := field(record, idx, cols.Close)
		closePrice, err := strconv.ParseFloat(closeRaw, 64)
		if err != nil {
			skipped++
			continue
		}
		volumeRaw, _ := field(record, idx, cols.Volume)
		volume, err := strconv.ParseFloat(volumeRaw, 64)
		if err != nil {
			skipped++
			continue
		}

		row := types.PriceRow{
			Ticker: name,
			Date:   day,
			Close:  closePrice,
			Volume: int64(volume),
		}
		if v, ok := field(record, idx, cols.Open); ok {
			row.Open, _ = strconv.ParseFloat(v, 64)
		}
		if v, ok := field(record, idx, cols.High); ok {
			row.High, _ = strconv.ParseFloat(v, 64)
		}
		if v, ok := field(record, idx, cols.Low); ok {
			row.Low, _ = strconv.ParseFloat(v, 64)
		}
		rows = append(rows, row)
	}

	if skipped > 0 {
		s.log.Warn("skipped unparseable price rows", "count", skipped, "path", s.profile.Path)
	}
	s.log.Debug("price rows loaded", "ticker", ticker, "rows", len(rows))
	return rows, nil
}
