package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/xreader/internal/dom"
	"github.com/ibeckermayer/xreader/internal/postid"
	"github.com/ibeckermayer/xreader/internal/types"
)

// DefaultBaseURL is used to resolve relative links found in the timeline.
const DefaultBaseURL = "https://x.com"

// maxQuoteDepth bounds quote recursion. X only nests one level, anything
// deeper is treated as malformed markup.
const maxQuoteDepth = 8

// RenderedNode is one child of the timeline container as captured from the
// live page.
type RenderedNode struct {
	// Key identifies the live DOM node across steps of a crawl.
	Key  string `json:"key"`
	HTML string `json:"html"`
	// BorderBottomWidth is the computed border-bottom-width of the node's
	// first child.
	BorderBottomWidth string `json:"borderBottomWidth"`
}

// HasReplies reports whether a timeline cell is drawn as part of a thread.
// X removes the bottom border of a cell when a connecting reply line follows
// it, so "0px" is the only signal we get.
func HasReplies(borderBottomWidth string) bool {
	return strings.TrimSpace(borderBottomWidth) == "0px"
}

// Parser turns rendered timeline nodes into posts
type Parser struct {
	base   *url.URL
	logger *slog.Logger
}

// NewParser creates a parser that resolves links against baseURL
func NewParser(baseURL string, logger *slog.Logger) (*Parser, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{base: base, logger: logger.With("component", "parser")}, nil
}

// Parse decodes the markup of a rendered node. It returns nil when the node
// is not a post or cannot be understood.
func (p *Parser) Parse(node RenderedNode) *types.Post {
	root, err := parseFragment(node.HTML)
	if err != nil {
		p.logger.Debug("failed to parse node markup", "key", node.Key, "error", err)
		return nil
	}
	return p.ParseSelection(root, node.BorderBottomWidth)
}

// ParseBatch parses nodes concurrently and returns the posts in node order.
// Nodes that are not posts are skipped.
func (p *Parser) ParseBatch(ctx context.Context, nodes []RenderedNode) ([]types.Post, error) {
	results := make([]*types.Post, len(nodes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, n := range nodes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.Parse(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	posts := make([]types.Post, 0, len(nodes))
	for _, r := range results {
		if r != nil {
			posts = append(posts, *r)
		}
	}
	return posts, nil
}

// ParseSelection parses the first element of sel. The element is cloned
// first so later mutation of the source document cannot affect the result.
func (p *Parser) ParseSelection(sel *goquery.Selection, borderBottomWidth string) *types.Post {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	return p.parse(sel.First().Clone(), borderBottomWidth, 0)
}

func (p *Parser) parse(el *goquery.Selection, borderBottomWidth string, depth int) (post *types.Post) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("failed to parse timeline node", "panic", r, "depth", depth)
			post = nil
		}
	}()

	if depth > maxQuoteDepth {
		return nil
	}

	// Cells without a timestamp are chrome: separators, "show more", ads.
	createdAt := attr(el.Find(PostTimestamp), "datetime")
	if createdAt == "" {
		return nil
	}

	var retweetedBy string
	if social := el.Find(SocialContext).First(); social.Length() > 0 {
		retweetedBy = dom.TextAt(dom.SignificantTextNodes(social), 0)
	}

	// The quoted card is parsed on its own and then cut out of the working
	// copy, so nothing below can attribute its media or text to the outer post.
	var quoted *types.Post
	if quote := p.findQuote(el); quote != nil {
		quoted = p.parse(quote.Clone(), "", depth+1)
		quote.Remove()
	}

	if t := attr(el.Find(PostTimestamp), "datetime"); t != "" {
		createdAt = t
	}

	videos := []types.Video{}
	posters := make(map[string]struct{})
	el.Find(PostVideo).Each(func(_ int, v *goquery.Selection) {
		video := types.Video{
			PosterURL: dom.Attr(v, p.base, "poster"),
			MediaURL:  dom.Attr(v, p.base, "src"),
		}
		posters[video.PosterURL] = struct{}{}
		videos = append(videos, video)
	})

	images := []string{}
	el.Find(PostPhoto).Each(func(_ int, img *goquery.Selection) {
		src := dom.Attr(img, p.base, "src")
		if src == "" {
			return
		}
		if _, isPoster := posters[src]; isPoster {
			return
		}
		images = append(images, src)
	})

	author := dom.SignificantTextNodes(el.Find(PostAuthor).First())
	authorName := dom.TextAt(author, 0)
	text := el.Find(PostText).First().Text()

	attribution := retweetedBy
	if attribution == "" {
		attribution = authorName
	}

	return &types.Post{
		ID:               postid.Key(createdAt, attribution, text),
		CreatedAt:        createdAt,
		AuthorName:       authorName,
		AuthorHandle:     dom.TextAt(author, 1),
		AuthorAvatarURL:  dom.Attr(el.Find(PostAvatar), p.base, "src"),
		RetweetedBy:      retweetedBy,
		HasReplies:       HasReplies(borderBottomWidth),
		HasTruncatedText: el.Find(PostShowMore).Length() > 0,
		TextContent:      text,
		CanonicalURL:     p.statusURL(el),
		Images:           images,
		Videos:           videos,
		LinkCard:         p.linkCard(el),
		QuotedPost:       quoted,
	}
}

// findQuote locates the root of an embedded quote: the element right after
// the parent of the "Quote" label. A label inside the post text is just text.
func (p *Parser) findQuote(el *goquery.Selection) *goquery.Selection {
	marker := dom.ElementWithOwnText(el, QuoteMarker)
	if marker == nil || marker.Closest(PostText).Length() > 0 {
		return nil
	}
	quote := marker.Parent().Next()
	if quote.Length() == 0 || !dom.Within(el, quote.Get(0)) {
		return nil
	}
	return quote
}

func (p *Parser) linkCard(el *goquery.Selection) *types.LinkCard {
	a := el.Find(PostLinkCard).First()
	href := dom.Attr(a, p.base, "href")
	if href == "" {
		return nil
	}
	return &types.LinkCard{
		URL:       href,
		ImageURL:  dom.Attr(a.Find("img"), p.base, "src"),
		TargetURL: dom.Attr(a, p.base, LinkCardTarget),
		Title:     strings.TrimSpace(a.Text()),
	}
}

func (p *Parser) statusURL(el *goquery.Selection) string {
	for _, link := range dom.CollectLinks(el, p.base) {
		if strings.Contains(link, StatusLinkPart) {
			return link
		}
	}
	return ""
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.First().Attr(name)
	return strings.TrimSpace(v)
}

// parseFragment parses markup as the content of a <div> and returns its
// first element.
func parseFragment(markup string) (*goquery.Selection, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), container)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	root := goquery.NewDocumentFromNode(container).Selection.Children().First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("no element in markup")
	}
	return root, nil
}
