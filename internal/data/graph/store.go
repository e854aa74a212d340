package graph

import (
	"context"

	"github.com/ArthurrMrv/graph-project/internal/types"
)

// Store is the transactional upsert contract the ingestion pipeline writes
// through. Every call is atomic: either the whole chunk commits or none of
// it does. Implementations key all writes by natural identity, so repeated
// calls with the same records converge to identical graph state.
type Store interface {
	// EnsureSchema declares uniqueness constraints for every node kind.
	// Best-effort; implementations may log and continue on restricted users.
	EnsureSchema(ctx context.Context) error

	// UpsertPriceChunk merges one chunk of price points: Stock and
	// TradingDay nodes plus one PRICED_ON relationship per (stock, day)
	// pair with its attributes overwritten in place.
	UpsertPriceChunk(ctx context.Context, points []*types.PricePoint) error

	// UpsertSocialChunk merges one chunk of social posts with their Tag,
	// and — only for kinds enabled in flags — Author, Topic and Event
	// neighborhoods.
	UpsertSocialChunk(ctx context.Context, posts []*types.SocialPost, flags types.SchemaFlags) error

	// FetchPostsForScoring returns stored posts matching the query that
	// need (or were requested for) sentiment scoring.
	FetchPostsForScoring(ctx context.Context, q ScoringQuery) ([]PostForScoring, error)

	// UpdatePostSentiments writes classifier scores back onto stored
	// posts. Returns the number of posts updated.
	UpdatePostSentiments(ctx context.Context, updates []SentimentUpdate) (int, error)
}

// ScoringQuery selects stored posts for the sentiment backfill.
type ScoringQuery struct {
	Ticker    string
	StartDate string
	EndDate   string
	Rescore   bool
	Limit     int
}

// PostForScoring is the minimal projection the sentiment adapter needs.
type PostForScoring struct {
	ID           string
	Text         string
	HasSentiment bool
}

// SentimentUpdate carries one scored result back to the store.
type SentimentUpdate struct {
	PostID     string
	Sentiment  float64
	Confidence float64
}
