package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ibeckermayer/xreader/internal/types"
)

func TestRenderSummary(t *testing.T) {
	from := time.Date(2024, 3, 2, 7, 0, 0, 0, time.Local)
	sum := &types.Summary{
		ID:       "abc",
		TimeFrom: from,
		TimeTo:   from.Add(-24 * time.Hour),
		TextItems: []types.SummaryTextItem{{
			Text: "Rust 2.0 rumours",
			RelatedPosts: []types.Post{{
				AuthorName:   "Ada",
				TextContent:  "hello\n\n  world",
				CanonicalURL: "https://x.com/ada/status/1",
			}},
		}},
		MediaItems: []types.SummaryMediaGroup{{
			AuthorName: "Bob",
			Images: []types.SummaryImage{{
				ImageURL: "https://pbs.twimg.com/media/1.jpg",
				PostURL:  "https://x.com/bob/status/2",
			}},
		}},
	}

	var buf bytes.Buffer
	renderSummary(&buf, sum)
	out := buf.String()

	assert.Contains(t, out, "Your timeline from Mar 1 07:00 to Mar 2 07:00")
	assert.Contains(t, out, "1. Rust 2.0 rumours")
	assert.Contains(t, out, "   - Ada: hello world")
	assert.Contains(t, out, "https://x.com/ada/status/1")
	assert.Contains(t, out, "Bob (1)")
	assert.Contains(t, out, "from https://x.com/bob/status/2")
}

func TestRenderSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, &types.Summary{})
	assert.Contains(t, buf.String(), "Nothing worth your time.")
	assert.NotContains(t, buf.String(), "Media")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "a b", excerpt(" a \n b ", 10))
	assert.Equal(t, "abcd…", excerpt("abcdefgh", 5))
}
