package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesService defines the Messages API call used by AnthropicText.
type MessagesService interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicText generates text with the Anthropic Messages API.
type AnthropicText struct {
	messages  MessagesService
	model     string
	maxTokens int64
}

// NewAnthropicText creates a message generator bound to apiKey.
func NewAnthropicText(apiKey, model string, maxTokens int64) *AnthropicText {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicText{
		messages:  client.Messages,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete runs one system+user message exchange. MaxTokens is mandatory for
// this API, so a default is always sent.
func (a *AnthropicText) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := a.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(maxTokens),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		}),
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.System),
		})
	}

	msg, err := a.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic message failed: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic message: %w", ErrEmptyResponse)
	}
	return b.String(), nil
}
