package summary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xreader/internal/types"
)

var testPrefs = types.Preferences{Interests: "design", NotInterests: "sports"}

func TestNewRequest_StringifiesPosts(t *testing.T) {
	req, err := NewRequest(testPrefs, []PayloadPost{{PostText: "hi", PostAuthor: "Ada", PostID: "p1"}})
	require.NoError(t, err)

	assert.Equal(t, "design", req.Interests)
	assert.Equal(t, "sports", req.NotInterests)
	assert.JSONEq(t, `[{"postText":"hi","postAuthor":"Ada","postId":"p1"}]`, req.StringifiedPosts)

	empty, err := NewRequest(testPrefs, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", empty.StringifiedPosts)
}

func TestParseItems(t *testing.T) {
	items, err := ParseItems([]byte(`{"response":{"items":[{"description":"d","relatedPostsIds":["a"]}]}}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, Item{Description: "d", RelatedPostsIDs: []string{"a"}}, items[0])

	items, err = ParseItems([]byte(`{"items":[{"description":"e","relatedPostsIds":[]}]}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "e", items[0].Description)

	_, err = ParseItems([]byte(`not json`))
	assert.Error(t, err)
}

func TestEndpointSummarizer_Success(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"response":{"items":[{"description":"Design news","relatedPostsIds":["p1","p9"]}]}}`))
	}))
	defer srv.Close()

	s := NewEndpointSummarizer(srv.URL, 5*time.Second, nil)
	items, err := s.Summarize(context.Background(), testPrefs, []PayloadPost{{PostText: "hi", PostAuthor: "Ada", PostID: "p1"}})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "Design news", items[0].Description)
	assert.Equal(t, []string{"p1", "p9"}, items[0].RelatedPostsIDs)

	assert.Equal(t, "design", got.Interests)
	assert.Equal(t, "sports", got.NotInterests)
	assert.JSONEq(t, `[{"postText":"hi","postAuthor":"Ada","postId":"p1"}]`, got.StringifiedPosts)
}

func TestEndpointSummarizer_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewEndpointSummarizer(srv.URL, 5*time.Second, nil)
	_, err := s.Summarize(context.Background(), testPrefs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEndpointSummarizer_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewEndpointSummarizer(srv.URL, 5*time.Second, nil)
	_, err := s.Summarize(context.Background(), testPrefs, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestEndpointSummarizer_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewEndpointSummarizer(srv.URL, 50*time.Millisecond, nil)
	_, err := s.Summarize(context.Background(), testPrefs, nil)
	assert.Error(t, err)
}

func TestEndpointSummarizer_NotConfigured(t *testing.T) {
	s := NewEndpointSummarizer("", time.Second, nil)
	_, err := s.Summarize(context.Background(), testPrefs, nil)
	assert.Error(t, err)
}

func TestAnthropicSummarizer_PrefilledJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_test",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "\"items\":[{\"description\":\"Art\",\"relatedPostsIds\":[\"p1\"]}]}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 10}
		}`))
	}))
	defer srv.Close()

	var exchanges []Exchange
	s := NewAnthropicSummarizer("test-key", "claude-test", nil,
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	s.OnExchange = func(e Exchange) { exchanges = append(exchanges, e) }

	items, err := s.Summarize(context.Background(), testPrefs, []PayloadPost{{PostText: "hi", PostAuthor: "Ada", PostID: "p1"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Art", items[0].Description)
	assert.Equal(t, []string{"p1"}, items[0].RelatedPostsIDs)

	require.Len(t, exchanges, 1)
	assert.Equal(t, ProviderAnthropic, exchanges[0].Provider)
	assert.Contains(t, exchanges[0].Prompt, "(ID: p1)")
}

func TestAnthropicSummarizer_HonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewAnthropicSummarizer("test-key", "claude-test", nil,
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Summarize(ctx, testPrefs, []PayloadPost{{PostText: "hi", PostAuthor: "Ada", PostID: "p1"}})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(testPrefs, []PayloadPost{{PostText: "hello", PostAuthor: "Ada", PostID: "x1"}})
	assert.Contains(t, p, "Interested in: design")
	assert.Contains(t, p, "Not interested in (leave out): sports")
	assert.Contains(t, p, "Author: Ada")
	assert.Contains(t, p, "relatedPostsIds")

	assert.Contains(t, BuildPrompt(types.Preferences{}, nil), "No preferences configured")
}
