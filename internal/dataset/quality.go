package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// PriceQualityReport summarizes the health of the price CSV before any
// ingestion touches it.
type PriceQualityReport struct {
	Status         string   `json:"status"`
	Rows           int      `json:"rows"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	InvalidDates   int      `json:"invalid_dates"`
	BadClose       int      `json:"bad_close"`
	BadVolume      int      `json:"bad_volume"`
	DuplicateKeys  int      `json:"duplicate_keys"`
}

// SocialQualityReport summarizes the health of the social CSV.
type SocialQualityReport struct {
	Status              string   `json:"status"`
	Rows                int      `json:"rows"`
	MissingColumns      []string `json:"missing_columns,omitempty"`
	InvalidDates        int      `json:"invalid_dates"`
	EmptyText           int      `json:"empty_text"`
	EmptyTicker         int      `json:"empty_ticker"`
	DuplicateTextPerDay int      `json:"duplicate_text_per_day"`
}

// CheckPrices scans the whole price CSV and reports row-level anomalies
// without writing anything.
func CheckPrices(ctx context.Context, profile Profile) (*PriceQualityReport, error) {
	cols := profile.Prices.Columns
	report := &PriceQualityReport{Status: "ok"}

	f, err := os.Open(profile.Prices.Path)
	if err != nil {
		return nil, fmt.Errorf("open price csv %s: %w", profile.Prices.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read price csv header: %w", err)
	}
	idx := headerIndex(header)
	for _, required := range []string{cols.Date, cols.Ticker, cols.Close, cols.Volume} {
		if _, ok := idx[required]; !ok {
			report.MissingColumns = append(report.MissingColumns, required)
		}
	}
	if len(report.MissingColumns) > 0 {
		report.Status = "missing_columns"
		return report, nil
	}

	seen := map[string]bool{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		report.Rows++

		rawDate, _ := field(record, idx, cols.Date)
		parsed, ok := parseDate(rawDate)
		if !ok {
			report.InvalidDates++
			continue
		}
		if v, _ := field(record, idx, cols.Close); v != "" {
			if closePrice, err := strconv.ParseFloat(v, 64); err != nil || closePrice <= 0 {
				report.BadClose++
			}
		}
		if v, _ := field(record, idx, cols.Volume); v != "" {
			if volume, err := strconv.ParseFloat(v, 64); err != nil || volume < 0 {
				report.BadVolume++
			}
		}
		ticker, _ := field(record, idx, cols.Ticker)
		key := ticker + "|" + parsed.Format("2006-01-02")
		if seen[key] {
			report.DuplicateKeys++
		}
		seen[key] = true
	}
	return report, nil
}

// CheckSocial scans the whole social CSV and reports row-level anomalies.
func CheckSocial(ctx context.Context, profile Profile) (*SocialQualityReport, error) {
	cols := profile.Social.Columns
	report := &SocialQualityReport{Status: "ok"}

	f, err := os.Open(profile.Social.Path)
	if err != nil {
		return nil, fmt.Errorf("open social csv %s: %w", profile.Social.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read social csv header: %w", err)
	}
	idx := headerIndex(header)
	for _, required := range []string{cols.Date, cols.Ticker, cols.Text} {
		if _, ok := idx[required]; !ok {
			report.MissingColumns = append(report.MissingColumns, required)
		}
	}
	if len(report.MissingColumns) > 0 {
		report.Status = "missing_columns"
		return report, nil
	}

	seen := map[string]bool{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		report.Rows++

		text, _ := field(record, idx, cols.Text)
		if text == "" {
			report.EmptyText++
		}
		ticker, _ := field(record, idx, cols.Ticker)
		if ticker == "" {
			report.EmptyTicker++
		}
		rawDate, _ := field(record, idx, cols.Date)
		parsed, ok := parseDate(rawDate)
		if !ok {
			report.InvalidDates++
			continue
		}
		key := text + "|" + parsed.Format("2006-01-02")
		if seen[key] {
			report.DuplicateTextPerDay++
		}
		seen[key] = true
	}
	return report, nil
}
