package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xreader/internal/postid"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser("", nil)
	require.NoError(t, err)
	return p
}

// cell wraps article markup the way the home timeline renders a cell.
func cell(article string) string {
	return `<div data-testid="cellInnerDiv"><div><article data-testid="tweet">` + article + `</article></div></div>`
}

func header(name, handle, status, datetime string) string {
	return fmt.Sprintf(`<div data-testid="Tweet-User-Avatar"><img src="/pic/%[2]s.jpg"></div>
<div data-testid="User-Name">
  <a href="/%[2]s"><span>%[1]s</span></a>
  <a href="/%[2]s"><span>@%[2]s</span></a>
  <a href="/%[2]s/status/%[3]s"><time datetime="%[4]s">Jan 1</time></a>
</div>`, name, handle, status, datetime)
}

const adaTime = "2024-01-01T00:00:00Z"

func TestParse_ConcreteScenario(t *testing.T) {
	p := newTestParser(t)

	noTime := RenderedNode{Key: "a", HTML: cell(`<div data-testid="User-Name"><span>Ada</span></div><div data-testid="tweetText">Hello world</div>`)}
	assert.Nil(t, p.Parse(noTime))

	markup := cell(header("Ada", "ada", "1", adaTime) + `<div data-testid="tweetText"><span>Hello world</span></div>`)
	first := p.Parse(RenderedNode{Key: "b", HTML: markup, BorderBottomWidth: "1px"})
	require.NotNil(t, first)
	assert.Equal(t, adaTime, first.CreatedAt)
	assert.Equal(t, "Ada", first.AuthorName)
	assert.Equal(t, "@ada", first.AuthorHandle)
	assert.Equal(t, "Hello world", first.TextContent)
	assert.Empty(t, first.Images)
	assert.NotNil(t, first.Images)
	assert.Empty(t, first.Videos)
	assert.Nil(t, first.QuotedPost)
	assert.Nil(t, first.LinkCard)
	assert.False(t, first.HasReplies)
	assert.Equal(t, "https://x.com/ada/status/1", first.CanonicalURL)
	assert.Equal(t, "https://x.com/pic/ada.jpg", first.AuthorAvatarURL)
	assert.Equal(t, postid.Key(adaTime, "Ada", "Hello world"), first.ID)

	// Same cell rendered again after a DOM refresh.
	again := p.Parse(RenderedNode{Key: "c", HTML: markup, BorderBottomWidth: "1px"})
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID)
}

func TestParse_InvalidMarkup(t *testing.T) {
	p := newTestParser(t)
	assert.Nil(t, p.Parse(RenderedNode{}))
	assert.Nil(t, p.Parse(RenderedNode{HTML: "just text"}))
	assert.Nil(t, p.Parse(RenderedNode{HTML: cell(`<time>no datetime</time>`)}))
}

func TestParse_PostWithoutTextOrMediaIsKept(t *testing.T) {
	p := newTestParser(t)
	post := p.Parse(RenderedNode{HTML: cell(header("Ada", "ada", "7", adaTime))})
	require.NotNil(t, post)
	assert.Equal(t, "", post.TextContent)
	assert.Empty(t, post.Images)
}

func TestParse_HasRepliesFromBorder(t *testing.T) {
	p := newTestParser(t)
	markup := cell(header("Ada", "ada", "1", adaTime))

	post := p.Parse(RenderedNode{HTML: markup, BorderBottomWidth: "0px"})
	require.NotNil(t, post)
	assert.True(t, post.HasReplies)

	assert.True(t, HasReplies(" 0px "))
	assert.False(t, HasReplies("1px"))
	assert.False(t, HasReplies(""))
}

func TestParse_Retweet(t *testing.T) {
	p := newTestParser(t)
	markup := cell(`<div data-testid="socialContext"><span>Grace Hopper</span> reposted</div>` +
		header("Ada", "ada", "1", adaTime) + `<div data-testid="tweetText">Hello world</div>`)

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	assert.Equal(t, "Grace Hopper", post.RetweetedBy)
	assert.False(t, post.IsOriginal())
	assert.Equal(t, "Ada", post.AuthorName)
	assert.Equal(t, postid.Key(adaTime, "GraceHopper", "Hello world"), post.ID)
}

func TestParse_LinkCardTarget(t *testing.T) {
	p := newTestParser(t)
	card := `<div data-testid="card.wrapper"><a href="https://t.co/abc" data-xr-target="https://example.com/article">
<img src="https://pbs.twimg.com/card_img/1.jpg"><span>An article</span></a></div>`
	post := p.Parse(RenderedNode{HTML: cell(header("Ada", "ada", "1", adaTime) + card)})
	require.NotNil(t, post)
	require.NotNil(t, post.LinkCard)
	assert.Equal(t, "https://t.co/abc", post.LinkCard.URL)
	assert.Equal(t, "https://pbs.twimg.com/card_img/1.jpg", post.LinkCard.ImageURL)
	assert.Equal(t, "https://example.com/article", post.LinkCard.TargetURL)
	assert.Equal(t, "An article", post.LinkCard.Title)
}

func TestParse_LinkCardNestedAnchorIsSplit(t *testing.T) {
	p := newTestParser(t)
	// Without the adapter's attribute the nested anchor is lost to HTML
	// parsing, so no target is reported.
	card := `<div data-testid="card.wrapper"><a href="https://t.co/abc"><span>Title</span><a href="https://example.com/nested">x</a></a></div>`
	post := p.Parse(RenderedNode{HTML: cell(header("Ada", "ada", "1", adaTime) + card)})
	require.NotNil(t, post)
	require.NotNil(t, post.LinkCard)
	assert.Equal(t, "https://t.co/abc", post.LinkCard.URL)
	assert.Empty(t, post.LinkCard.TargetURL)
}

func quotedCard() string {
	return `<div><span>Quote</span></div>
<div role="link">` + header("Bob", "bob", "2", "2023-12-31T10:00:00Z") + `
  <div data-testid="tweetText">Quoted text</div>
  <button data-testid="tweet-text-show-more-link">Show more</button>
  <div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/quoted.jpg"></div>
  <div data-testid="videoPlayer"><video poster="https://pbs.twimg.com/quoted-poster.jpg" src="https://video.twimg.com/q.mp4"></video></div>
</div>`
}

func TestParse_QuotedPostIsScopedOut(t *testing.T) {
	p := newTestParser(t)
	markup := cell(header("Ada", "ada", "1", adaTime) +
		`<div data-testid="tweetText">Look at this</div>
<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/outer.jpg"></div>` + quotedCard())

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	assert.Equal(t, "Look at this", post.TextContent)
	assert.Equal(t, []string{"https://pbs.twimg.com/media/outer.jpg"}, post.Images)
	assert.Empty(t, post.Videos)
	assert.False(t, post.HasTruncatedText)
	assert.Equal(t, "https://x.com/ada/status/1", post.CanonicalURL)
	assert.Equal(t, adaTime, post.CreatedAt)

	q := post.QuotedPost
	require.NotNil(t, q)
	assert.Equal(t, "Bob", q.AuthorName)
	assert.Equal(t, "Quoted text", q.TextContent)
	assert.Equal(t, "2023-12-31T10:00:00Z", q.CreatedAt)
	assert.Equal(t, []string{"https://pbs.twimg.com/media/quoted.jpg"}, q.Images)
	require.Len(t, q.Videos, 1)
	assert.Equal(t, "https://video.twimg.com/q.mp4", q.Videos[0].MediaURL)
	assert.True(t, q.HasTruncatedText)
	assert.False(t, q.HasReplies)
	assert.Equal(t, "https://x.com/bob/status/2", q.CanonicalURL)
}

func TestParse_OuterTextFallsBackPastQuote(t *testing.T) {
	p := newTestParser(t)
	// Outer post has no text of its own; the quote's text must not leak out.
	post := p.Parse(RenderedNode{HTML: cell(header("Ada", "ada", "1", adaTime) + quotedCard())})
	require.NotNil(t, post)
	assert.Equal(t, "", post.TextContent)
	require.NotNil(t, post.QuotedPost)
	assert.Equal(t, "Quoted text", post.QuotedPost.TextContent)
}

func TestParse_QuoteLabelInsideTextIsNotAQuote(t *testing.T) {
	p := newTestParser(t)
	markup := cell(header("Ada", "ada", "1", adaTime) +
		`<div data-testid="tweetText"><div><span>Quote</span></div><div>of the day</div></div>`)

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	assert.Nil(t, post.QuotedPost)
}

func TestParse_UnparseableQuoteIsAbsent(t *testing.T) {
	p := newTestParser(t)
	markup := cell(header("Ada", "ada", "1", adaTime) +
		`<div><span>Quote</span></div><div role="link"><div data-testid="tweetText">This post is unavailable</div></div>`)

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	assert.Nil(t, post.QuotedPost)
	assert.Equal(t, "", post.TextContent)
}

func TestParse_NestedQuotes(t *testing.T) {
	p := newTestParser(t)
	inner := `<div><span>Quote</span></div><div role="link">` + header("Cy", "cy", "3", "2023-01-01T00:00:00Z") +
		`<div data-testid="tweetText">innermost</div></div>`
	middle := `<div><span>Quote</span></div><div role="link">` + header("Bob", "bob", "2", "2023-06-01T00:00:00Z") +
		`<div data-testid="tweetText">middle</div>` + inner + `</div>`
	markup := cell(header("Ada", "ada", "1", adaTime) + `<div data-testid="tweetText">outer</div>` + middle)

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	require.NotNil(t, post.QuotedPost)
	assert.Equal(t, "middle", post.QuotedPost.TextContent)
	require.NotNil(t, post.QuotedPost.QuotedPost)
	assert.Equal(t, "innermost", post.QuotedPost.QuotedPost.TextContent)
}

func TestParse_VideoPosterIsNotAnImage(t *testing.T) {
	p := newTestParser(t)
	markup := cell(header("Ada", "ada", "1", adaTime) + `
<div data-testid="videoPlayer"><video poster="https://pbs.twimg.com/poster.jpg"></video></div>
<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/poster.jpg"></div>
<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/photo.jpg"></div>`)

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	require.Len(t, post.Videos, 1)
	assert.Equal(t, "https://pbs.twimg.com/poster.jpg", post.Videos[0].PosterURL)
	assert.Equal(t, "", post.Videos[0].MediaURL)
	assert.Equal(t, []string{"https://pbs.twimg.com/photo.jpg"}, post.Images)
}

func TestParse_LinkCardAndShowMore(t *testing.T) {
	p := newTestParser(t)
	markup := cell(header("Ada", "ada", "1", adaTime) + `
<div data-testid="tweetText">Long read</div>
<button data-testid="tweet-text-show-more-link">Show more</button>
<div data-testid="card.wrapper"><a href="https://t.co/abc"><img src="https://pbs.twimg.com/card.jpg"><span> Example title </span></a></div>`)

	post := p.Parse(RenderedNode{HTML: markup})
	require.NotNil(t, post)
	assert.True(t, post.HasTruncatedText)
	require.NotNil(t, post.LinkCard)
	assert.Equal(t, "https://t.co/abc", post.LinkCard.URL)
	assert.Equal(t, "https://pbs.twimg.com/card.jpg", post.LinkCard.ImageURL)
	assert.Equal(t, "Example title", post.LinkCard.Title)
}

func TestParseBatch_PreservesOrderAndSkipsChrome(t *testing.T) {
	p := newTestParser(t)
	nodes := []RenderedNode{
		{Key: "0", HTML: cell(header("Ada", "ada", "1", "2024-01-03T00:00:00Z") + `<div data-testid="tweetText">one</div>`)},
		{Key: "1", HTML: `<div data-testid="cellInnerDiv"><h2>Who to follow</h2></div>`},
		{Key: "2", HTML: cell(header("Bob", "bob", "2", "2024-01-02T00:00:00Z") + `<div data-testid="tweetText">two</div>`)},
		{Key: "3", HTML: cell(header("Cy", "cy", "3", "2024-01-01T00:00:00Z") + `<div data-testid="tweetText">three</div>`)},
	}

	posts, err := p.ParseBatch(context.Background(), nodes)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "one", posts[0].TextContent)
	assert.Equal(t, "two", posts[1].TextContent)
	assert.Equal(t, "three", posts[2].TextContent)
}

func TestParseBatch_Cancelled(t *testing.T) {
	p := newTestParser(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ParseBatch(ctx, []RenderedNode{{HTML: cell(header("Ada", "ada", "1", adaTime))}})
	assert.ErrorIs(t, err, context.Canceled)
}
