package ingest

import (
	"strings"

	"github.com/ArthurrMrv/graph-project/internal/types"
)

// NegotiateSchema decides which optional entity kinds this run may create.
// A kind is enabled iff its source column was declared AND at least one row
// carries a non-empty value. The decision is made once over the full social
// batch so every chunk of the run sees the same schema; a declared column
// with no usable values disables the kind and attaches a warning instead of
// failing the run.
func NegotiateSchema(batch types.SocialBatch) (types.SchemaFlags, []string) {
	var (
		flags    types.SchemaFlags
		warnings []string
	)

	if batch.Columns.HasAuthor {
		for _, p := range batch.Posts {
			if p != nil && p.AuthorID != nil && strings.TrimSpace(*p.AuthorID) != "" {
				flags.AuthorEnabled = true
				break
			}
		}
		if !flags.AuthorEnabled {
			warnings = append(warnings, "author column declared but carries no values; Author nodes disabled for this run")
		}
	}

	if batch.Columns.HasTopics {
		for _, p := range batch.Posts {
			if p != nil && len(p.Topics) > 0 {
				flags.TopicEnabled = true
				break
			}
		}
		if !flags.TopicEnabled {
			warnings = append(warnings, "topics column declared but carries no values; Topic nodes disabled for this run")
		}
	}

	if batch.Columns.HasEvent {
		for _, p := range batch.Posts {
			if p != nil && p.EventID != nil && strings.TrimSpace(*p.EventID) != "" {
				flags.EventEnabled = true
				break
			}
		}
		if !flags.EventEnabled {
			warnings = append(warnings, "event column declared but carries no values; Event nodes disabled for this run")
		}
	}

	return flags, warnings
}
