package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ArthurrMrv/graph-project/internal/data/graph"
	"github.com/ArthurrMrv/graph-project/internal/observability"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// DefaultChunkSize bounds one upsert transaction when the caller does not
// ask for a specific size.
const DefaultChunkSize = 2000

// Upserter partitions a record stream into bounded chunks and applies each
// chunk as one atomic transactional upsert. Chunks are applied in input
// order; a committed chunk is never rolled back by a later failure.
type Upserter struct {
	store     graph.Store
	log       *logger.Logger
	chunkSize int
}

func NewUpserter(store graph.Store, baseLog *logger.Logger, chunkSize int) (*Upserter, error) {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be a positive integer, got %d", chunkSize)
	}
	return &Upserter{
		store:     store,
		log:       baseLog.With("component", "ChunkedUpserter"),
		chunkSize: chunkSize,
	}, nil
}

// chunks partitions items into contiguous groups of at most size records,
// preserving input order.
func chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// UpsertPrices validates, chunks and merges price points. Validation
// failures skip the offending record and continue; a store failure is fatal
// and aborts with the counters accumulated so far.
func (u *Upserter) UpsertPrices(ctx context.Context, points []*types.PricePoint) (types.ChunkStats, []types.RejectedRecord, error) {
	stats := types.ChunkStats{Attempted: len(points)}
	var rejected []types.RejectedRecord

	valid := make([]*types.PricePoint, 0, len(points))
	for _, p := range points {
		if reason := validatePricePoint(p); reason != "" {
			stats.Rejected++
			rejected = append(rejected, types.RejectedRecord{RecordRef: priceRef(p), Reason: reason})
			continue
		}
		valid = append(valid, p)
	}
	observability.Current().AddRejected("prices", stats.Rejected)

	for _, chunk := range chunks(valid, u.chunkSize) {
		if err := ctx.Err(); err != nil {
			return stats, rejected, fmt.Errorf("price upsert cancelled: %w", err)
		}
		if err := u.store.UpsertPriceChunk(ctx, chunk); err != nil {
			stats.ChunksFailed++
			return stats, rejected, fmt.Errorf("price upsert: %w", err)
		}
		stats.ChunksCommitted++
		stats.Upserted += len(chunk)
		observability.Current().AddChunk("prices", len(chunk))
		u.log.Debug("price chunk committed", "records", len(chunk), "chunks_committed", stats.ChunksCommitted)
	}
	return stats, rejected, nil
}

// UpsertSocial validates, chunks and merges social posts under the schema
// flags negotiated for this run.
func (u *Upserter) UpsertSocial(ctx context.Context, posts []*types.SocialPost, flags types.SchemaFlags) (types.ChunkStats, []types.RejectedRecord, error) {
	stats := types.ChunkStats{Attempted: len(posts)}
	var rejected []types.RejectedRecord

	valid := make([]*types.SocialPost, 0, len(posts))
	for _, p := range posts {
		if reason := validateSocialPost(p); reason != "" {
			stats.Rejected++
			rejected = append(rejected, types.RejectedRecord{RecordRef: socialRef(p), Reason: reason})
			continue
		}
		valid = append(valid, p)
	}
	observability.Current().AddRejected("posts", stats.Rejected)

	for _, chunk := range chunks(valid, u.chunkSize) {
		if err := ctx.Err(); err != nil {
			return stats, rejected, fmt.Errorf("social upsert cancelled: %w", err)
		}
		if err := u.store.UpsertSocialChunk(ctx, chunk, flags); err != nil {
			stats.ChunksFailed++
			return stats, rejected, fmt.Errorf("social upsert: %w", err)
		}
		stats.ChunksCommitted++
		stats.Upserted += len(chunk)
		observability.Current().AddChunk("posts", len(chunk))
		u.log.Debug("social chunk committed", "records", len(chunk), "chunks_committed", stats.ChunksCommitted)
	}
	return stats, rejected, nil
}

func validatePricePoint(p *types.PricePoint) string {
	if p == nil {
		return "nil record"
	}
	if strings.TrimSpace(p.Ticker) == "" {
		return "missing ticker"
	}
	if !validDay(p.Date) {
		return fmt.Sprintf("malformed date %q", p.Date)
	}
	if p.Close <= 0 {
		return fmt.Sprintf("non-positive close %v", p.Close)
	}
	if p.Volume < 0 {
		return fmt.Sprintf("negative volume %d", p.Volume)
	}
	return ""
}

func validateSocialPost(p *types.SocialPost) string {
	if p == nil {
		return "nil record"
	}
	if strings.TrimSpace(p.ID) == "" {
		return "missing post id"
	}
	if strings.TrimSpace(p.Ticker) == "" {
		return "missing ticker"
	}
	if strings.TrimSpace(p.Text) == "" {
		return "empty text"
	}
	if !validDay(p.Day) {
		return fmt.Sprintf("malformed day %q", p.Day)
	}
	return ""
}

func validDay(day string) bool {
	_, err := time.Parse("2006-01-02", day)
	return err == nil
}

func priceRef(p *types.PricePoint) string {
	if p == nil {
		return "<nil>"
	}
	return p.Ticker + "@" + p.Date
}

func socialRef(p *types.SocialPost) string {
	if p == nil {
		return "<nil>"
	}
	if p.ID != "" {
		return p.ID
	}
	return p.Ticker + "@" + p.Date
}
