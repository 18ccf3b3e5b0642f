// Package summary shapes accumulated posts for an external summarizer and
// assembles its answer into a summary artifact.
package summary

import (
	"time"

	"github.com/ibeckermayer/xreader/internal/types"
)

// Mode is the pagination style of the feed being summarized.
type Mode string

const (
	// ModeChronological is the "Following" feed: newest first, so a time
	// cutoff is meaningful.
	ModeChronological Mode = "chronological"
	// ModeForYou is the ranked feed where no cutoff can be enforced.
	ModeForYou Mode = "for_you"
)

// PayloadPost is the only view of a post sent to the summarizer.
type PayloadPost struct {
	PostText   string `json:"postText"`
	PostAuthor string `json:"postAuthor"`
	PostID     string `json:"postId"`
}

// Item is one digest entry returned by the summarizer.
type Item struct {
	Description     string   `json:"description"`
	RelatedPostsIDs []string `json:"relatedPostsIds"`
}

// Window describes the time range a summary covers.
type Window struct {
	Mode Mode
	// GeneratedAt is when generation started.
	GeneratedAt time.Time
	// Cutoff is the oldest moment the crawl was asked to reach.
	Cutoff time.Time
}

// BuildPayload keeps the posts that carry text and strips them down to
// id, text and author.
func BuildPayload(posts []types.Post) []PayloadPost {
	payload := make([]PayloadPost, 0, len(posts))
	for _, p := range posts {
		if p.TextContent == "" {
			continue
		}
		payload = append(payload, PayloadPost{
			PostText:   p.TextContent,
			PostAuthor: p.AuthorName,
			PostID:     p.ID,
		})
	}
	return payload
}

// Reassemble links each item's referenced IDs back to full posts. IDs the
// summarizer made up or truncated are dropped.
func Reassemble(items []Item, posts []types.Post) []types.SummaryTextItem {
	byID := make(map[string]types.Post, len(posts))
	for _, p := range posts {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p
		}
	}

	out := make([]types.SummaryTextItem, 0, len(items))
	for _, item := range items {
		related := make([]types.Post, 0, len(item.RelatedPostsIDs))
		for _, id := range item.RelatedPostsIDs {
			if p, ok := byID[id]; ok {
				related = append(related, p)
			}
		}
		out = append(out, types.SummaryTextItem{
			Text:         item.Description,
			RelatedPosts: related,
		})
	}
	return out
}

// GroupMedia collects images by author name, keeping the order authors and
// images were first seen in.
func GroupMedia(posts []types.Post) []types.SummaryMediaGroup {
	groups := []types.SummaryMediaGroup{}
	index := make(map[string]int)

	for _, p := range posts {
		if len(p.Images) == 0 {
			continue
		}
		i, ok := index[p.AuthorName]
		if !ok {
			i = len(groups)
			index[p.AuthorName] = i
			groups = append(groups, types.SummaryMediaGroup{
				AuthorName:      p.AuthorName,
				AuthorAvatarURL: p.AuthorAvatarURL,
			})
		}
		for _, img := range p.Images {
			groups[i].Images = append(groups[i].Images, types.SummaryImage{
				ImageURL: img,
				PostID:   p.ID,
				PostURL:  p.CanonicalURL,
				PostText: p.TextContent,
			})
		}
	}
	return groups
}

// WindowEnd returns the older edge of the summary window. In chronological
// mode it is the cutoff; in for-you mode it is the oldest original,
// non-thread post actually seen, falling back to the cutoff.
func WindowEnd(w Window, posts []types.Post) time.Time {
	if w.Mode != ModeForYou {
		return w.Cutoff
	}
	var oldest time.Time
	for _, p := range posts {
		if !p.IsOriginal() || p.HasReplies {
			continue
		}
		t := p.Time()
		if t.IsZero() {
			continue
		}
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	if oldest.IsZero() {
		return w.Cutoff
	}
	return oldest
}

// Build assembles the summary artifact from the summarizer's items and the
// posts that were sent.
func Build(items []Item, posts []types.Post, w Window) *types.Summary {
	return &types.Summary{
		TimeFrom:   w.GeneratedAt,
		TimeTo:     WindowEnd(w, posts),
		TextItems:  Reassemble(items, posts),
		MediaItems: GroupMedia(posts),
	}
}
