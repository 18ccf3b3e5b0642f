package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xreader/internal/crawler"
)

const timelinePage = `<!doctype html>
<html><body>
<nav>
  <a role="tab" aria-selected="true" href="#"><span>For you</span></a>
  <a role="tab" aria-selected="false" href="#"><span>Following</span></a>
</nav>
<div aria-label="Timeline: Your Home Timeline"><div>
  <div><div style="border-bottom: 1px solid gray"><article>first</article></div></div>
  <div><div style="border-bottom: 0px"><article>second</article></div></div>
</div></div>
</body></html>`

const emptyPage = `<!doctype html><html><body><p>loading</p></body></html>`

func TestJSString(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
	assert.Equal(t, `["n1","n2"]`, jsValue([]string{"n1", "n2"}))
}

func openTestSession(t *testing.T, body string) *Session {
	t.Helper()
	if os.Getenv("XREADER_CHROME_TESTS") == "" {
		t.Skip("set XREADER_CHROME_TESTS=1 to run tests against a local Chrome")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	s, err := Open(ctx, SessionConfig{Headless: true, HomeURL: srv.URL}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestTimeline_ChildrenRenderScroll(t *testing.T) {
	tl := openTestSession(t, timelinePage).Timeline()
	ctx := context.Background()

	keys, err := tl.Children(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	again, err := tl.Children(ctx)
	require.NoError(t, err)
	assert.Equal(t, keys, again, "keys are stable across calls")

	nodes, err := tl.Render(ctx, append(keys, "gone"))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, keys[0], nodes[0].Key)
	assert.Contains(t, nodes[0].HTML, "first")
	assert.Equal(t, "1px", nodes[0].BorderBottomWidth)
	assert.Equal(t, "0px", nodes[1].BorderBottomWidth)

	assert.NoError(t, tl.ScrollIntoView(ctx, keys[1]))
	assert.NoError(t, tl.ScrollIntoView(ctx, "gone"))

	forYou, err := tl.IsForYou(ctx)
	require.NoError(t, err)
	assert.True(t, forYou)
}

func TestTimeline_NoContainer(t *testing.T) {
	tl := openTestSession(t, emptyPage).Timeline()

	_, err := tl.Children(context.Background())
	assert.ErrorIs(t, err, crawler.ErrNoTimeline)

	forYou, err := tl.IsForYou(context.Background())
	require.NoError(t, err)
	assert.False(t, forYou)
}

func TestTimeline_CallerCancel(t *testing.T) {
	tl := openTestSession(t, timelinePage).Timeline()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tl.Children(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
