package scraper

import (
	"errors"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibeckermayer/xreader/internal/types"
)

// ErrNoTimelineInDocument is returned when a saved page has no home timeline.
var ErrNoTimelineInDocument = errors.New("no home timeline in document")

// ParseDocument parses every cell of the home timeline in a saved page, in
// document order. Computed styles are not available offline, so no post is
// marked as having replies.
func (p *Parser) ParseDocument(r io.Reader) ([]types.Post, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	list := doc.Find(TimelineContainer).First().Children().First()
	if list.Length() == 0 {
		return nil, ErrNoTimelineInDocument
	}

	var posts []types.Post
	list.Children().Each(func(_ int, cell *goquery.Selection) {
		if post := p.ParseSelection(cell, ""); post != nil {
			posts = append(posts, *post)
		}
	})
	return posts, nil
}
