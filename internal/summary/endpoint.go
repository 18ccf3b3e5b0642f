package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ibeckermayer/xreader/internal/types"
)

// EndpointSummarizer posts posts to a summarization HTTP endpoint
type EndpointSummarizer struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewEndpointSummarizer creates a summarizer for the given endpoint
func NewEndpointSummarizer(endpoint string, timeout time.Duration, logger *slog.Logger) *EndpointSummarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndpointSummarizer{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout, // LLM-backed endpoints can be slow
		},
		logger: logger.With("component", "summarizer", "provider", ProviderEndpoint),
	}
}

// Summarize sends one request. Any non-2xx status fails the attempt.
func (s *EndpointSummarizer) Summarize(ctx context.Context, prefs types.Preferences, posts []PayloadPost) ([]Item, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("summarization endpoint is not configured")
	}

	reqBody, err := NewRequest(prefs, posts)
	if err != nil {
		return nil, err
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call summarizer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("summarizer returned status %d: %.300s", resp.StatusCode, string(body))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse summarizer response: %w", err)
	}

	s.logger.Debug("summarizer answered",
		"posts", len(posts),
		"items", len(parsed.Response.Items),
		"elapsed", time.Since(start),
	)
	return parsed.Response.Items, nil
}
