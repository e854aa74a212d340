package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/platform/neo4jdb"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// Neo4jStore implements Store on a Neo4j database. Each chunk upsert runs
// inside one managed write transaction, so chunk boundaries are the failure
// isolation boundaries of the pipeline.
type Neo4jStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewNeo4jStore(client *neo4jdb.Client, baseLog *logger.Logger) *Neo4jStore {
	return &Neo4jStore{
		client: client,
		log:    baseLog.With("store", "Neo4jMarketGraph"),
	}
}

var constraintQueries = []string{
	`CREATE CONSTRAINT stock_ticker_unique IF NOT EXISTS FOR (s:Stock) REQUIRE s.ticker IS UNIQUE`,
	`CREATE CONSTRAINT trading_day_date_unique IF NOT EXISTS FOR (d:TradingDay) REQUIRE d.date IS UNIQUE`,
	`CREATE CONSTRAINT post_id_unique IF NOT EXISTS FOR (p:Post) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT tag_tag_unique IF NOT EXISTS FOR (t:Tag) REQUIRE t.tag IS UNIQUE`,
	`CREATE CONSTRAINT author_id_unique IF NOT EXISTS FOR (a:Author) REQUIRE a.author_id IS UNIQUE`,
	`CREATE CONSTRAINT topic_name_unique IF NOT EXISTS FOR (tp:Topic) REQUIRE tp.name IS UNIQUE`,
	`CREATE CONSTRAINT event_id_unique IF NOT EXISTS FOR (e:Event) REQUIRE e.event_id IS UNIQUE`,
}

// EnsureSchema declares the uniqueness constraints. Failures are logged and
// skipped; restricted users may not hold schema privileges.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, q := range constraintQueries {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			s.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
	return nil
}

const priceChunkCypher = `
UNWIND $rows AS row
MERGE (s:Stock {ticker: row.ticker})
MERGE (d:TradingDay {date: row.date})
MERGE (s)-[r:PRICED_ON]->(d)
SET r.open = row.open,
    r.high = row.high,
    r.low = row.low,
    r.close = row.close,
    r.volume = row.volume,
    r.daily_change = row.daily_change,
    r.volatility = row.volatility
`

func (s *Neo4jStore) UpsertPriceChunk(ctx context.Context, points []*types.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		rows = append(rows, map[string]any{
			"ticker":       p.Ticker,
			"date":         p.Date,
			"open":         p.Open,
			"high":         p.High,
			"low":          p.Low,
			"close":        p.Close,
			"volume":       p.Volume,
			"daily_change": floatOrNil(p.DailyChange),
			"volatility":   floatOrNil(p.Volatility),
		})
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, priceChunkCypher, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("price chunk upsert: %w", err)
	}
	return nil
}

const socialChunkBaseCypher = `
UNWIND $rows AS row
MERGE (s:Stock {ticker: row.ticker})
MERGE (p:Post {id: row.post_id})
SET p.text = row.text, p.date = row.date
FOREACH (_ IN CASE WHEN row.sentiment IS NULL THEN [] ELSE [1] END |
    SET p.sentiment = row.sentiment, p.confidence = row.confidence)
MERGE (p)-[:DISCUSSES]->(s)
MERGE (d:TradingDay {date: row.day})
MERGE (p)-[:ON_DATE]->(d)
FOREACH (tag IN row.tags |
    MERGE (h:Tag {tag: tag})
    MERGE (p)-[:TAGGED_WITH]->(h))
`

const socialAuthorFragment = `
FOREACH (author IN CASE WHEN row.author_id IS NULL THEN [] ELSE [row.author_id] END |
    MERGE (a:Author {author_id: author})
    MERGE (p)-[:POSTED_BY]->(a))
`

const socialTopicFragment = `
FOREACH (topic IN row.topics |
    MERGE (tp:Topic {name: topic})
    MERGE (p)-[:MENTIONS]->(tp))
`

const socialEventFragment = `
FOREACH (ev IN CASE WHEN row.event_id IS NULL THEN [] ELSE [row.event_id] END |
    MERGE (e:Event {event_id: ev})
    MERGE (p)-[:REFERENCES]->(e))
`

// socialChunkCypher assembles the chunk statement for the run's enabled
// schema kinds. Disabled kinds contribute no Cypher at all, so a run can
// never create a partial Author/Topic/Event neighborhood.
func socialChunkCypher(flags types.SchemaFlags) string {
	var b strings.Builder
	b.WriteString(socialChunkBaseCypher)
	if flags.AuthorEnabled {
		b.WriteString(socialAuthorFragment)
	}
	if flags.TopicEnabled {
		b.WriteString(socialTopicFragment)
	}
	if flags.EventEnabled {
		b.WriteString(socialEventFragment)
	}
	return b.String()
}

func (s *Neo4jStore) UpsertSocialChunk(ctx context.Context, posts []*types.SocialPost, flags types.SchemaFlags) error {
	if len(posts) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		rows = append(rows, map[string]any{
			"ticker":     p.Ticker,
			"post_id":    p.ID,
			"text":       p.Text,
			"date":       p.Date,
			"day":        p.Day,
			"tags":       stringList(p.Tags),
			"author_id":  strOrNil(p.AuthorID),
			"topics":     stringList(p.Topics),
			"event_id":   strOrNil(p.EventID),
			"sentiment":  floatOrNil(p.Sentiment),
			"confidence": floatOrNil(p.Confidence),
		})
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	cypher := socialChunkCypher(flags)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("social chunk upsert: %w", err)
	}
	return nil
}

func (s *Neo4jStore) FetchPostsForScoring(ctx context.Context, q ScoringQuery) ([]PostForScoring, error) {
	var (
		match  = `MATCH (p:Post)`
		wheres = []string{`(p.sentiment IS NULL OR $rescore = true)`}
		params = map[string]any{"rescore": q.Rescore}
	)
	if q.Ticker != "" {
		match = `MATCH (p:Post)-[:DISCUSSES]->(s:Stock {ticker: $ticker})`
		params["ticker"] = q.Ticker
	}
	if q.StartDate != "" {
		wheres = append(wheres, `p.date >= $start_date`)
		params["start_date"] = q.StartDate
	}
	if q.EndDate != "" {
		end := q.EndDate
		// Make a date-only bound inclusive of the whole day.
		if len(end) == 10 && !strings.Contains(end, "T") {
			end += "T23:59:59"
		}
		wheres = append(wheres, `p.date <= $end_date`)
		params["end_date"] = end
	}
	cypher := match + "\nWHERE " + strings.Join(wheres, " AND ") +
		"\nRETURN p.id AS id, p.text AS text, p.sentiment IS NOT NULL AS has_sentiment"
	if q.Limit > 0 {
		cypher += "\nLIMIT $limit"
		params["limit"] = q.Limit
	}

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var posts []PostForScoring
		for res.Next(ctx) {
			rec := res.Record().AsMap()
			p := PostForScoring{}
			if v, ok := rec["id"].(string); ok {
				p.ID = v
			}
			if v, ok := rec["text"].(string); ok {
				p.Text = v
			}
			if v, ok := rec["has_sentiment"].(bool); ok {
				p.HasSentiment = v
			}
			posts = append(posts, p)
		}
		return posts, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetch posts for scoring: %w", err)
	}
	return out.([]PostForScoring), nil
}

const sentimentUpdateCypher = `
UNWIND $updates AS u
MATCH (p:Post {id: u.post_id})
SET p.sentiment = u.sentiment, p.confidence = u.confidence
RETURN count(p) AS updated
`

func (s *Neo4jStore) UpdatePostSentiments(ctx context.Context, updates []SentimentUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	rows := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		rows = append(rows, map[string]any{
			"post_id":    u.PostID,
			"sentiment":  u.Sentiment,
			"confidence": u.Confidence,
		})
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, sentimentUpdateCypher, map[string]any{"updates": rows})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			if v, ok := res.Record().AsMap()["updated"].(int64); ok {
				return int(v), res.Err()
			}
		}
		return 0, res.Err()
	})
	if err != nil {
		return 0, fmt.Errorf("update post sentiments: %w", err)
	}
	return out.(int), nil
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOrNil(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func stringList(in []string) []any {
	out := make([]any, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}
