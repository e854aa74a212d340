package types

// PriceRow is one raw daily price observation as loaded from the source.
type PriceRow struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// PricePoint is a price row augmented with derived signals. DailyChange and
// Volatility stay nil where the trailing history is too short to define them.
type PricePoint struct {
	PriceRow
	DailyChange *float64 `json:"daily_change"`
	Volatility  *float64 `json:"volatility"`
}

// SocialPost is one social record for a ticker. Optional columns arrive as
// nil pointers / empty slices; sentiment fields are populated lazily.
type SocialPost struct {
	ID         string   `json:"id"`
	Ticker     string   `json:"ticker"`
	Text       string   `json:"text"`
	Date       string   `json:"date"` // full ISO timestamp
	Day        string   `json:"day"`  // YYYY-MM-DD, links to TradingDay
	Tags       []string `json:"tags"`
	AuthorID   *string  `json:"author_id,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	EventID    *string  `json:"event_id,omitempty"`
	Sentiment  *float64 `json:"sentiment"`  // in [0,1] once scored
	Confidence *float64 `json:"confidence"` // in [0,1] once scored
}

// SocialColumns records which optional columns the source dataset declared
// for this run, independent of whether any row carried a value.
type SocialColumns struct {
	HasAuthor bool
	HasTopics bool
	HasEvent  bool
}

// SocialBatch is the full social load for one run. Schema negotiation needs
// the whole batch, so the loader returns it as one value.
type SocialBatch struct {
	Posts   []*SocialPost
	Columns SocialColumns
}

// SchemaFlags is the per-run set of enabled optional entity kinds, computed
// once by the negotiator and held constant across every chunk of the run.
type SchemaFlags struct {
	AuthorEnabled bool `json:"author_enabled"`
	TopicEnabled  bool `json:"topic_enabled"`
	EventEnabled  bool `json:"event_enabled"`
}

// DailySentiment is the per-day aggregate over scored posts.
type DailySentiment struct {
	Day           string  `json:"day"`
	MeanSentiment float64 `json:"mean_sentiment"`
	PostCount     int     `json:"post_count"`
}
