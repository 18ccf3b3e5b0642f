package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ibeckermayer/xreader/internal/types"
)

// Exchange is one prompt/response round trip with an LLM.
type Exchange struct {
	Provider string
	Model    string
	Prompt   string
	Response string
}

// AnthropicSummarizer implements Summarizer using Anthropic's Claude API
type AnthropicSummarizer struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger

	// OnExchange, if set, receives every completed exchange for debugging.
	OnExchange func(Exchange)
}

// NewAnthropicSummarizer creates a new Anthropic summarizer
func NewAnthropicSummarizer(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *AnthropicSummarizer {
	if logger == nil {
		logger = slog.Default()
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicSummarizer{
		client: &client,
		model:  model,
		logger: logger.With("component", "summarizer", "provider", ProviderAnthropic),
	}
}

// Summarize asks Claude for digest items
func (c *AnthropicSummarizer) Summarize(ctx context.Context, prefs types.Preferences, posts []PayloadPost) ([]Item, error) {
	prompt := BuildPrompt(prefs, posts)

	// Prefill "{" so the reply continues a JSON object
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock("{")),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if c.OnExchange != nil {
		c.OnExchange(Exchange{
			Provider: ProviderAnthropic,
			Model:    c.model,
			Prompt:   prompt,
			Response: responseText,
		})
	}

	if responseText == "" {
		return nil, ErrEmptyResponse
	}

	items, err := ParseItems([]byte("{" + responseText))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("claude answered", "posts", len(posts), "items", len(items))
	return items, nil
}
