package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RunParams are the caller-supplied parameters for one ingestion run.
type RunParams struct {
	Ticker    string `json:"stock"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // YYYY-MM-DD
	ChunkSize int    `json:"chunk_size,omitempty"` // default 2000
	Rescore   bool   `json:"rescore,omitempty"`
}

// RejectedRecord attributes one skipped input record to a reason.
type RejectedRecord struct {
	RecordRef string `json:"record_ref"`
	Reason    string `json:"reason"`
}

// ChunkStats are the counters accumulated by the chunked upserter for one
// stage of one run.
type ChunkStats struct {
	Attempted       int `json:"attempted"`
	Upserted        int `json:"upserted"`
	Rejected        int `json:"rejected"`
	ChunksCommitted int `json:"chunks_committed"`
	ChunksFailed    int `json:"chunks_failed"`
}

func (s *ChunkStats) Add(other ChunkStats) {
	s.Attempted += other.Attempted
	s.Upserted += other.Upserted
	s.Rejected += other.Rejected
	s.ChunksCommitted += other.ChunksCommitted
	s.ChunksFailed += other.ChunksFailed
}

// SentimentStats counts classifier outcomes for one run. A post lands in
// exactly one of processed/updated/skipped/failed.
type SentimentStats struct {
	Processed int `json:"tweets_processed"`
	Updated   int `json:"tweets_updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Run status values.
const (
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusError   = "error"
)

// RunReport is the immutable summary of one pipeline run. Chunks
// accumulates the upserter counters across the price and social stages.
type RunReport struct {
	RunID          uuid.UUID        `json:"run_id"`
	Status         string           `json:"status"`
	Ticker         string           `json:"stock"`
	PricesSynced   int              `json:"prices_synced"`
	TweetsImported int              `json:"tweets_imported"`
	Chunks         ChunkStats       `json:"chunk_stats"`
	Sentiment      SentimentStats   `json:"sentiment_processing"`
	DailySentiment []DailySentiment `json:"daily_sentiment,omitempty"`
	Rejected       []RejectedRecord `json:"rejected_records"`
	Schema         SchemaFlags      `json:"schema"`
	Warnings       []string         `json:"warnings,omitempty"`
	FailedStage    string           `json:"failed_stage,omitempty"`
	FailureReason  string           `json:"failure_reason,omitempty"`
}

// IngestionRun is the durable audit record persisted per pipeline run.
type IngestionRun struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Ticker          string         `gorm:"index" json:"ticker"`
	StartDate       string         `json:"start_date"`
	EndDate         string         `json:"end_date"`
	ChunkSize       int            `json:"chunk_size"`
	Status          string         `gorm:"index" json:"status"`
	PricesSynced    int            `json:"prices_synced"`
	TweetsImported  int            `json:"tweets_imported"`
	TweetsProcessed int            `json:"tweets_processed"`
	TweetsUpdated   int            `json:"tweets_updated"`
	SentimentFailed int            `json:"sentiment_failed"`
	AuthorEnabled   bool           `json:"author_enabled"`
	TopicEnabled    bool           `json:"topic_enabled"`
	EventEnabled    bool           `json:"event_enabled"`
	RejectedRecords datatypes.JSON `json:"rejected_records"`
	Warnings        datatypes.JSON `json:"warnings"`
	FailedStage     string         `json:"failed_stage"`
	FailureReason   string         `json:"failure_reason"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	CreatedAt       time.Time      `json:"created_at"`
}
