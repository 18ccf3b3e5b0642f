package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ibeckermayer/xreader/internal/types"
)

// Provider names accepted in configuration
const (
	ProviderEndpoint  = "endpoint"
	ProviderAnthropic = "anthropic"
)

// ErrEmptyResponse is returned when the summarizer answered without a body.
var ErrEmptyResponse = errors.New("summarizer returned empty response")

// Summarizer turns posts into digest items
type Summarizer interface {
	Summarize(ctx context.Context, prefs types.Preferences, posts []PayloadPost) ([]Item, error)
}

// Request is the JSON body posted to the summarization endpoint. Posts
// travel as a JSON-encoded string, not a nested array.
type Request struct {
	Interests        string `json:"interests"`
	NotInterests     string `json:"notInterests"`
	StringifiedPosts string `json:"stringifiedPosts"`
}

// Response is the JSON body the endpoint answers with.
type Response struct {
	Response struct {
		Items []Item `json:"items"`
	} `json:"response"`
}

// NewRequest builds the endpoint request body.
func NewRequest(prefs types.Preferences, posts []PayloadPost) (Request, error) {
	if posts == nil {
		posts = []PayloadPost{}
	}
	encoded, err := json.Marshal(posts)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode posts: %w", err)
	}
	return Request{
		Interests:        prefs.Interests,
		NotInterests:     prefs.NotInterests,
		StringifiedPosts: string(encoded),
	}, nil
}

// ParseItems decodes digest items from either the endpoint envelope
// ({"response":{"items":[...]}}) or a bare {"items":[...]} object.
func ParseItems(data []byte) ([]Item, error) {
	var envelope struct {
		Response *struct {
			Items []Item `json:"items"`
		} `json:"response"`
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse summary JSON: %w (response was: %.500s)", err, string(data))
	}
	if envelope.Response != nil {
		return envelope.Response.Items, nil
	}
	return envelope.Items, nil
}
