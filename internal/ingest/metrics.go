package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/ArthurrMrv/graph-project/internal/types"
)

// DefaultVolatilityWindow is the trailing observation count used for the
// rolling volatility signal when no override is configured.
const DefaultVolatilityWindow = 7

// DuplicateObservationError marks a second price row for a trading day the
// run has already seen. Duplicate observations indicate upstream data
// corruption and are never merged silently.
type DuplicateObservationError struct {
	Ticker string
	Date   string
}

func (e *DuplicateObservationError) Error() string {
	return fmt.Sprintf("duplicate trading-day observation for %s on %s", e.Ticker, e.Date)
}

// DerivePriceMetrics re-sorts rows by ascending date, drops duplicate-date
// rows (reported as errors, first occurrence wins) and augments the rest
// with daily change and rolling volatility.
//
// daily_change[t] = (close[t] - close[t-1]) / close[t-1], nil for the first
// row. volatility[t] is the sample standard deviation of daily_change over
// the trailing window ending at t; fewer than two defined observations in
// the window yields nil, not zero.
func DerivePriceMetrics(rows []types.PriceRow, window int) ([]*types.PricePoint, []*DuplicateObservationError) {
	if window < 2 {
		window = DefaultVolatilityWindow
	}

	sorted := make([]types.PriceRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var dups []*DuplicateObservationError
	seen := make(map[string]bool, len(sorted))
	kept := sorted[:0]
	for _, row := range sorted {
		if seen[row.Date] {
			dups = append(dups, &DuplicateObservationError{Ticker: row.Ticker, Date: row.Date})
			continue
		}
		seen[row.Date] = true
		kept = append(kept, row)
	}

	points := make([]*types.PricePoint, 0, len(kept))
	changes := make([]*float64, len(kept))
	for i, row := range kept {
		point := &types.PricePoint{PriceRow: row}
		if i > 0 && kept[i-1].Close != 0 {
			change := (row.Close - kept[i-1].Close) / kept[i-1].Close
			point.DailyChange = &change
			changes[i] = &change
		}
		point.Volatility = rollingStdev(changes, i, window)
		points = append(points, point)
	}
	return points, dups
}

// rollingStdev computes the sample standard deviation of the defined
// changes in the trailing window ending at index end.
func rollingStdev(changes []*float64, end, window int) *float64 {
	start := end - window + 1
	if start < 0 {
		start = 0
	}
	var vals []float64
	for i := start; i <= end; i++ {
		if changes[i] != nil {
			vals = append(vals, *changes[i])
		}
	}
	if len(vals) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	stdev := math.Sqrt(sumSq / float64(len(vals)-1))
	return &stdev
}

// AggregateDailySentiment reduces scored posts into per-day mean sentiment
// and post counts. The reduction groups by day and is order-independent;
// unscored posts are skipped.
func AggregateDailySentiment(posts []*types.SocialPost) []types.DailySentiment {
	type acc struct {
		sum   float64
		count int
	}
	byDay := map[string]*acc{}
	for _, p := range posts {
		if p == nil || p.Sentiment == nil || p.Day == "" {
			continue
		}
		a, ok := byDay[p.Day]
		if !ok {
			a = &acc{}
			byDay[p.Day] = a
		}
		a.sum += *p.Sentiment
		a.count++
	}

	out := make([]types.DailySentiment, 0, len(byDay))
	for day, a := range byDay {
		out = append(out, types.DailySentiment{
			Day:           day,
			MeanSentiment: a.sum / float64(a.count),
			PostCount:     a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
