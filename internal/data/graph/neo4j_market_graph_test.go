package graph

import (
	"strings"
	"testing"

	"github.com/ArthurrMrv/graph-project/internal/types"
)

func TestSocialChunkCypherFragments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		flags types.SchemaFlags
		want  []string
		skip  []string
	}{
		{
			name: "all disabled",
			want: []string{":DISCUSSES", ":ON_DATE", ":TAGGED_WITH"},
			skip: []string{":POSTED_BY", ":MENTIONS", ":REFERENCES"},
		},
		{
			name:  "author only",
			flags: types.SchemaFlags{AuthorEnabled: true},
			want:  []string{":POSTED_BY", "Author {author_id"},
			skip:  []string{":MENTIONS", ":REFERENCES"},
		},
		{
			name:  "all enabled",
			flags: types.SchemaFlags{AuthorEnabled: true, TopicEnabled: true, EventEnabled: true},
			want:  []string{":POSTED_BY", ":MENTIONS", ":REFERENCES", "Topic {name", "Event {event_id"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cypher := socialChunkCypher(tc.flags)
			for _, frag := range tc.want {
				if !strings.Contains(cypher, frag) {
					t.Fatalf("cypher missing %q:\n%s", frag, cypher)
				}
			}
			for _, frag := range tc.skip {
				if strings.Contains(cypher, frag) {
					t.Fatalf("cypher must not contain %q:\n%s", frag, cypher)
				}
			}
		})
	}
}

func TestSocialChunkCypherGuardsNullSentiment(t *testing.T) {
	t.Parallel()

	cypher := socialChunkCypher(types.SchemaFlags{})
	// Sentiment is written only when the row carries one, so a re-upsert
	// of raw posts never erases an earlier score.
	if !strings.Contains(cypher, "CASE WHEN row.sentiment IS NULL THEN [] ELSE [1] END") {
		t.Fatalf("missing null-sentiment guard:\n%s", cypher)
	}
}

func TestParamHelpers(t *testing.T) {
	t.Parallel()

	if v := floatOrNil(nil); v != nil {
		t.Fatalf("floatOrNil(nil) = %v", v)
	}
	f := 0.25
	if v := floatOrNil(&f); v != 0.25 {
		t.Fatalf("floatOrNil = %v", v)
	}
	if v := strOrNil(nil); v != nil {
		t.Fatalf("strOrNil(nil) = %v", v)
	}
	s := "alice"
	if v := strOrNil(&s); v != "alice" {
		t.Fatalf("strOrNil = %v", v)
	}
	if got := stringList(nil); len(got) != 0 {
		t.Fatalf("stringList(nil) = %v", got)
	}
	if got := stringList([]string{"a", "b"}); len(got) != 2 || got[0] != "a" {
		t.Fatalf("stringList = %v", got)
	}
}
