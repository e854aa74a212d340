package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags pulls #tag tokens out of post text, without the marker.
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// PostID derives a stable post key when the dataset has no id column:
// the hex sha256 of text plus the raw timestamp.
func PostID(text, rawDate string) string {
	sum := sha256.Sum256([]byte(text + rawDate))
	return hex.EncodeToString(sum[:])
}

// CSVSocialSource loads social posts from the configured CSV file and
// reports which optional columns the file declares.
type CSVSocialSource struct {
	profile SocialProfile
	log     *logger.Logger
}

func NewCSVSocialSource(profile Profile, baseLog *logger.Logger) *CSVSocialSource {
	return &CSVSocialSource{
		profile: profile.Social,
		log:     baseLog.With("source", "CSVSocial"),
	}
}

func (s *CSVSocialSource) LoadSocial(ctx context.Context, ticker, start, end string) (types.SocialBatch, error) {
	var batch types.SocialBatch

	f, err := os.Open(s.profile.Path)
	if err != nil {
		return batch, fmt.Errorf("open social csv %s: %w", s.profile.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if err != nil {
		return batch, fmt.Errorf("read social csv header: %w", err)
	}
	idx := headerIndex(header)
	cols := s.profile.Columns
	for _, required := range []string{cols.Date, cols.Ticker, cols.Text} {
		if _, ok := idx[required]; !ok {
			return batch, fmt.Errorf("social csv missing required column %q", required)
		}
	}

	_, hasID := idx[cols.ID]
	_, batch.Columns.HasAuthor = idx[cols.Author]
	_, batch.Columns.HasTopics = idx[cols.Topics]
	_, batch.Columns.HasEvent = idx[cols.Event]
	_, hasSentiment := idx[cols.Sentiment]
	_, hasConfidence := idx[cols.Confidence]

	var skipped int
	for {
		if err := ctx.Err(); err != nil {
			return batch, err
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
		text, _ := field(record, idx, cols.Text)

		post := &types.SocialPost{
			Ticker: name,
			Text:   text,
			Date:   parsed.Format("2006-01-02T15:04:05"),
			Day:    day,
			Tags:   ExtractHashtags(text),
		}
		if hasID {
			if v, _ := field(record, idx, cols.ID); v != "" {
				post.ID = v
			}
		}
		if post.ID == "" {
			post.ID = PostID(text, rawDate)
		}
		if batch.Columns.HasAuthor {
			if v, _ := field(record, idx, cols.Author); v != "" {
				author := v
				post.AuthorID = &author
			}
		}
		if batch.Columns.HasTopics {
			if v, _ := field(record, idx, cols.Topics); v != "" {
				for _, topic := range strings.Split(v, s.profile.TopicSeparator) {
					if topic = strings.TrimSpace(topic); topic != "" {
						post.Topics = append(post.Topics, topic)
					}
				}
			}
		}
		if batch.Columns.HasEvent {
			if v, _ := field(record, idx, cols.Event); v != "" {
				event := v
				post.EventID = &event
			}
		}
		if hasSentiment {
			if v, _ := field(record, idx, cols.Sentiment); v != "" {
				if score, err := strconv.ParseFloat(v, 64); err == nil {
					score = clamp01(score)
					post.Sentiment = &score
					confidence := 0.0
					if hasConfidence {
						if cv, _ := field(record, idx, cols.Confidence); cv != "" {
							confidence, _ = strconv.ParseFloat(cv, 64)
						}
					}
					confidence = clamp01(confidence)
					post.Confidence = &confidence
				}
			}
		}
		batch.Posts = append(batch.Posts, post)
	}

	if skipped > 0 {
		s.log.Warn("skipped unparseable social rows", "count", skipped, "path", s.profile.Path)
	}
	s.log.Debug("social rows loaded", "ticker", ticker, "rows", len(batch.Posts))
	return batch, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
