package graph

import (
	"context"
	"sync"

	"github.com/ArthurrMrv/graph-project/internal/types"
)

// MemoryStore is an in-memory Store with the same merge-by-natural-key
// semantics as the Neo4j implementation. It backs the pipeline tests and
// local development without a running database.
type MemoryStore struct {
	mu    sync.Mutex
	nodes map[string]map[string]map[string]any // label -> key -> props
	rels  map[string]map[string]map[string]any // type -> from|to -> props

	// ErrHook, when set, is consulted before every operation so tests can
	// inject storage failures. The op names match the Store method names.
	ErrHook func(op string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: map[string]map[string]map[string]any{},
		rels:  map[string]map[string]map[string]any{},
	}
}

func (m *MemoryStore) hook(op string) error {
	if m.ErrHook != nil {
		return m.ErrHook(op)
	}
	return nil
}

func (m *MemoryStore) mergeNode(label, key string) map[string]any {
	byKey, ok := m.nodes[label]
	if !ok {
		byKey = map[string]map[string]any{}
		m.nodes[label] = byKey
	}
	props, ok := byKey[key]
	if !ok {
		props = map[string]any{}
		byKey[key] = props
	}
	return props
}

func (m *MemoryStore) mergeRel(relType, from, to string) map[string]any {
	byPair, ok := m.rels[relType]
	if !ok {
		byPair = map[string]map[string]any{}
		m.rels[relType] = byPair
	}
	pair := from + "|" + to
	props, ok := byPair[pair]
	if !ok {
		props = map[string]any{}
		byPair[pair] = props
	}
	return props
}

func (m *MemoryStore) EnsureSchema(ctx context.Context) error {
	return m.hook("EnsureSchema")
}

func (m *MemoryStore) UpsertPriceChunk(ctx context.Context, points []*types.PricePoint) error {
	if err := m.hook("UpsertPriceChunk"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		if p == nil {
			continue
		}
		m.mergeNode("Stock", p.Ticker)
		m.mergeNode("TradingDay", p.Date)
		props := m.mergeRel("PRICED_ON", p.Ticker, p.Date)
		props["open"] = p.Open
		props["high"] = p.High
		props["low"] = p.Low
		props["close"] = p.Close
		props["volume"] = p.Volume
		props["daily_change"] = floatOrNil(p.DailyChange)
		props["volatility"] = floatOrNil(p.Volatility)
	}
	return nil
}

func (m *MemoryStore) UpsertSocialChunk(ctx context.Context, posts []*types.SocialPost, flags types.SchemaFlags) error {
	if err := m.hook("UpsertSocialChunk"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range posts {
		if p == nil {
			continue
		}
		m.mergeNode("Stock", p.Ticker)
		props := m.mergeNode("Post", p.ID)
		props["text"] = p.Text
		props["date"] = p.Date
		if p.Sentiment != nil {
			props["sentiment"] = *p.Sentiment
			props["confidence"] = floatOrNil(p.Confidence)
		}
		m.mergeRel("DISCUSSES", p.ID, p.Ticker)
		m.mergeNode("TradingDay", p.Day)
		m.mergeRel("ON_DATE", p.ID, p.Day)
		for _, tag := range p.Tags {
			m.mergeNode("Tag", tag)
			m.mergeRel("TAGGED_WITH", p.ID, tag)
		}
		if flags.AuthorEnabled && p.AuthorID != nil && *p.AuthorID != "" {
			m.mergeNode("Author", *p.AuthorID)
			m.mergeRel("POSTED_BY", p.ID, *p.AuthorID)
		}
		if flags.TopicEnabled {
			for _, topic := range p.Topics {
				m.mergeNode("Topic", topic)
				m.mergeRel("MENTIONS", p.ID, topic)
			}
		}
		if flags.EventEnabled && p.EventID != nil && *p.EventID != "" {
			m.mergeNode("Event", *p.EventID)
			m.mergeRel("REFERENCES", p.ID, *p.EventID)
		}
	}
	return nil
}

func (m *MemoryStore) FetchPostsForScoring(ctx context.Context, q ScoringQuery) ([]PostForScoring, error) {
	if err := m.hook("FetchPostsForScoring"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PostForScoring
	for id, props := range m.nodes["Post"] {
		_, scored := props["sentiment"]
		if scored && !q.Rescore {
			continue
		}
		if q.Ticker != "" {
			if _, ok := m.rels["DISCUSSES"][id+"|"+q.Ticker]; !ok {
				continue
			}
		}
		text, _ := props["text"].(string)
		out = append(out, PostForScoring{ID: id, Text: text, HasSentiment: scored})
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdatePostSentiments(ctx context.Context, updates []SentimentUpdate) (int, error) {
	if err := m.hook("UpdatePostSentiments"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range updates {
		props, ok := m.nodes["Post"][u.PostID]
		if !ok {
			continue
		}
		props["sentiment"] = u.Sentiment
		props["confidence"] = u.Confidence
		count++
	}
	return count, nil
}

// NodeCount reports the number of distinct nodes with the given label.
func (m *MemoryStore) NodeCount(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes[label])
}

// RelCount reports the number of distinct relationships of the given type.
func (m *MemoryStore) RelCount(relType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rels[relType])
}

// Node returns a copy of the props for one node, or nil when absent.
func (m *MemoryStore) Node(label, key string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	props, ok := m.nodes[label][key]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Rel returns a copy of the props for one relationship, or nil when absent.
func (m *MemoryStore) Rel(relType, from, to string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	props, ok := m.rels[relType][from+"|"+to]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
