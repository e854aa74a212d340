package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	redisclient "github.com/ArthurrMrv/graph-project/internal/clients/redis"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
)

const cacheTTL = 60 * time.Second

// DailyObservation pairs a trading day's price movement with the average
// sentiment of the posts discussing the stock that day.
type DailyObservation struct {
	Date         string  `json:"date"`
	PriceChange  float64 `json:"price_change"`
	AvgSentiment float64 `json:"avg_sentiment"`
	PostCount    int     `json:"post_count"`
}

type CorrelationReport struct {
	Stock          string             `json:"stock"`
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	Correlation    *float64           `json:"correlation"`
	SampleSize     int                `json:"sample_size"`
	Interpretation string             `json:"interpretation"`
	Daily          []DailyObservation `json:"daily"`
}

type TrendingStock struct {
	Ticker       string  `json:"ticker"`
	PostCount    int     `json:"post_count"`
	AvgSentiment float64 `json:"avg_sentiment"`
	ScoredPosts  int     `json:"scored_posts"`
}

type TrendingReport struct {
	WindowDays int             `json:"window_days"`
	Stocks     []TrendingStock `json:"stocks"`
}

type PredictionReport struct {
	Stock          string  `json:"stock"`
	LookbackDays   int     `json:"lookback_days"`
	Prediction     string  `json:"prediction"`
	Confidence     float64 `json:"confidence"`
	AvgSentiment   float64 `json:"avg_sentiment"`
	SampleSize     int     `json:"sample_size"`
	Interpretation string  `json:"interpretation"`
}

type VolatilityEntry struct {
	Ticker            string  `json:"ticker"`
	PostCount         int     `json:"post_count"`
	SentimentStdDev   float64 `json:"sentiment_std_dev"`
	AvgSentiment      float64 `json:"avg_sentiment"`
	DisagreementLevel string  `json:"disagreement_level"`
}

type VolatilityReport struct {
	MinPosts int               `json:"min_posts"`
	Entries  []VolatilityEntry `json:"entries"`
}

// SessionSource is the read-session slice of neo4jdb.Client the analytics
// queries need.
type SessionSource interface {
	ReadSession(ctx context.Context) neo4j.SessionWithContext
}

type Service struct {
	db    SessionSource
	cache redisclient.Cache
	log   *logger.Logger
}

// NewService builds the analytics read service. cache may be nil, in which
// case every query hits the graph directly.
func NewService(db SessionSource, cache redisclient.Cache, log *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("analytics: session source required")
	}
	if log == nil {
		return nil, fmt.Errorf("analytics: logger required")
	}
	return &Service{db: db, cache: cache, log: log.With("service", "Analytics")}, nil
}

func (s *Service) cached(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, out)
	if err != nil {
		s.log.Warn("analytics cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *Service) store(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, val, cacheTTL); err != nil {
		s.log.Warn("analytics cache write failed", "key", key, "error", err)
	}
}

const correlationCypher = `
MATCH (s:Stock {ticker: $ticker})-[p:PRICED_ON]->(d:TradingDay)
WHERE d.date >= $start AND d.date <= $end AND p.daily_change IS NOT NULL
OPTIONAL MATCH (post:Post)-[:DISCUSSES]->(s), (post)-[:ON_DATE]->(d)
WHERE post.sentiment IS NOT NULL
WITH d.date AS day, p.daily_change AS change,
     avg(post.sentiment) AS avg_sentiment, count(post) AS posts
WHERE posts > 0
RETURN day AS date, change, avg_sentiment, posts
ORDER BY day`

// SentimentPriceCorrelation computes the Pearson correlation between daily
// price change and the average sentiment score of same-day posts.
func (s *Service) SentimentPriceCorrelation(ctx context.Context, ticker, start, end string) (*CorrelationReport, error) {
	if end == "" {
		end = time.Now().UTC().Format("2006-01-02")
	}
	if start == "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, fmt.Errorf("analytics: invalid end date %q", end)
		}
		start = t.AddDate(0, 0, -30).Format("2006-01-02")
	}

	key := fmt.Sprintf("analytics:correlation:%s:%s:%s", ticker, start, end)
	var cachedReport CorrelationReport
	if s.cached(ctx, key, &cachedReport) {
		return &cachedReport, nil
	}

	rows, err := s.query(ctx, correlationCypher, map[string]any{
		"ticker": ticker, "start": start, "end": end,
	})
	if err != nil {
		return nil, err
	}

	report := &CorrelationReport{Stock: ticker, StartDate: start, EndDate: end}
	var changes, sentiments []float64
	for _, row := range rows {
		obs := DailyObservation{
			Date:         asString(row["date"]),
			PriceChange:  asFloat(row["change"]),
			AvgSentiment: asFloat(row["avg_sentiment"]),
			PostCount:    asInt(row["posts"]),
		}
		report.Daily = append(report.Daily, obs)
		changes = append(changes, obs.PriceChange)
		sentiments = append(sentiments, obs.AvgSentiment)
	}
	report.SampleSize = len(report.Daily)

	if corr, ok := pearson(sentiments, changes); ok {
		report.Correlation = &corr
		report.Interpretation = interpretCorrelation(corr)
	} else {
		report.Interpretation = "insufficient overlapping data to compute a correlation"
	}

	s.store(ctx, key, report)
	return report, nil
}

const trendingCypher = `
MATCH (post:Post)-[:DISCUSSES]->(s:Stock)
MATCH (post)-[:ON_DATE]->(d:TradingDay)
WHERE d.date >= $start
WITH s.ticker AS ticker, count(post) AS posts,
     avg(post.sentiment) AS avg_sentiment,
     count(post.sentiment) AS scored
RETURN ticker, posts, avg_sentiment, scored
ORDER BY posts DESC
LIMIT $limit`

// TrendingStocks ranks tickers by post volume over the trailing window.
func (s *Service) TrendingStocks(ctx context.Context, windowDays, limit int) (*TrendingReport, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	if limit <= 0 {
		limit = 10
	}
	start := time.Now().UTC().AddDate(0, 0, -windowDays).Format("2006-01-02")

	key := fmt.Sprintf("analytics:trending:%d:%d", windowDays, limit)
	var cachedReport TrendingReport
	if s.cached(ctx, key, &cachedReport) {
		return &cachedReport, nil
	}

	rows, err := s.query(ctx, trendingCypher, map[string]any{
		"start": start, "limit": limit,
	})
	if err != nil {
		return nil, err
	}

	report := &TrendingReport{WindowDays: windowDays, Stocks: []TrendingStock{}}
	for _, row := range rows {
		report.Stocks = append(report.Stocks, TrendingStock{
			Ticker:       asString(row["ticker"]),
			PostCount:    asInt(row["posts"]),
			AvgSentiment: asFloat(row["avg_sentiment"]),
			ScoredPosts:  asInt(row["scored"]),
		})
	}

	s.store(ctx, key, report)
	return report, nil
}

const predictionCypher = `
MATCH (post:Post)-[:DISCUSSES]->(:Stock {ticker: $ticker})
MATCH (post)-[:ON_DATE]->(d:TradingDay)
WHERE d.date >= $start AND post.sentiment IS NOT NULL
WITH post.sentiment AS s
RETURN count(s) AS total, avg(s) AS avg_sentiment,
       sum(CASE WHEN s > 0.6 THEN 1 ELSE 0 END) AS positive,
       sum(CASE WHEN s < 0.4 THEN 1 ELSE 0 END) AS negative`

// SentimentPrediction derives a directional signal from the recent sentiment
// mix of a ticker's posts.
func (s *Service) SentimentPrediction(ctx context.Context, ticker string, lookbackDays int) (*PredictionReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	start := time.Now().UTC().AddDate(0, 0, -lookbackDays).Format("2006-01-02")

	key := fmt.Sprintf("analytics:prediction:%s:%d", ticker, lookbackDays)
	var cachedReport PredictionReport
	if s.cached(ctx, key, &cachedReport) {
		return &cachedReport, nil
	}

	rows, err := s.query(ctx, predictionCypher, map[string]any{
		"ticker": ticker, "start": start,
	})
	if err != nil {
		return nil, err
	}

	var total, positive, negative int
	var avgSentiment float64
	if len(rows) > 0 {
		total = asInt(rows[0]["total"])
		positive = asInt(rows[0]["positive"])
		negative = asInt(rows[0]["negative"])
		avgSentiment = asFloat(rows[0]["avg_sentiment"])
	}
	neutral := total - positive - negative

	report := &PredictionReport{Stock: ticker, LookbackDays: lookbackDays, SampleSize: total}
	if total == 0 {
		report.Prediction = "unknown"
		report.Interpretation = interpretPrediction("unknown", 0)
		s.store(ctx, key, report)
		return report, nil
	}

	report.AvgSentiment = avgSentiment
	switch {
	case positive > negative && positive > neutral:
		report.Prediction = "bullish"
		report.Confidence = float64(positive) / float64(total)
	case negative > positive && negative > neutral:
		report.Prediction = "bearish"
		report.Confidence = float64(negative) / float64(total)
	default:
		report.Prediction = "neutral"
		report.Confidence = float64(neutral) / float64(total)
	}
	report.Interpretation = interpretPrediction(report.Prediction, report.Confidence)

	s.store(ctx, key, report)
	return report, nil
}

const volatilityCypher = `
MATCH (post:Post)-[:DISCUSSES]->(s:Stock)
WHERE post.sentiment IS NOT NULL
WITH s.ticker AS ticker, count(post) AS posts,
     stDev(post.sentiment) AS sent_stdev, avg(post.sentiment) AS avg_sent
WHERE posts >= $min_posts
RETURN ticker, posts, sent_stdev, avg_sent
ORDER BY sent_stdev DESC
LIMIT $limit`

// SocialVolatility ranks tickers by how much their post sentiment disagrees.
func (s *Service) SocialVolatility(ctx context.Context, minPosts, limit int) (*VolatilityReport, error) {
	if minPosts <= 0 {
		minPosts = 10
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("analytics:volatility:%d:%d", minPosts, limit)
	var cachedReport VolatilityReport
	if s.cached(ctx, key, &cachedReport) {
		return &cachedReport, nil
	}

	rows, err := s.query(ctx, volatilityCypher, map[string]any{
		"min_posts": minPosts, "limit": limit,
	})
	if err != nil {
		return nil, err
	}

	report := &VolatilityReport{MinPosts: minPosts, Entries: []VolatilityEntry{}}
	for _, row := range rows {
		stdev := asFloat(row["sent_stdev"])
		report.Entries = append(report.Entries, VolatilityEntry{
			Ticker:            asString(row["ticker"]),
			PostCount:         asInt(row["posts"]),
			SentimentStdDev:   stdev,
			AvgSentiment:      asFloat(row["avg_sent"]),
			DisagreementLevel: disagreementLevel(stdev),
		})
	}

	s.store(ctx, key, report)
	return report, nil
}

func disagreementLevel(stdev float64) string {
	switch {
	case stdev >= 0.3:
		return "high"
	case stdev >= 0.15:
		return "moderate"
	default:
		return "low"
	}
}

func (s *Service) query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := s.db.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			rows = append(rows, rec.AsMap())
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: query failed: %w", err)
	}
	return result.([]map[string]any), nil
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	}
	return 0
}

func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return 0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
