package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TextGenerator produces text for one request with a bound key.
type TextGenerator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ImageGenerator produces one image with a bound key.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// Options configures a Client.
type Options struct {
	DefaultProvider Provider
	OpenAIModel     string
	AnthropicModel  string
	ImageModel      string
	MaxTokens       int64
}

// Client is the Backend that dispatches to vendor SDKs. Keys arrive with each
// call, so a vendor client is constructed per call.
type Client struct {
	opts Options

	newOpenAIText    func(key string) TextGenerator
	newAnthropicText func(key string) TextGenerator
	newOpenAIImage   func(key string) ImageGenerator
	newHordeImage    func(key string) ImageGenerator
}

var _ Backend = (*Client)(nil)

// NewClient creates a Client backed by the real vendor SDKs.
func NewClient(opts Options) *Client {
	return &Client{
		opts: opts,
		newOpenAIText: func(key string) TextGenerator {
			return NewOpenAIText(key, opts.OpenAIModel, opts.MaxTokens)
		},
		newAnthropicText: func(key string) TextGenerator {
			return NewAnthropicText(key, opts.AnthropicModel, opts.MaxTokens)
		},
		newOpenAIImage: func(key string) ImageGenerator {
			return NewOpenAIImage(key, opts.ImageModel)
		},
		newHordeImage: func(key string) ImageGenerator {
			return NewHordeImage(key)
		},
	}
}

// GenerateText resolves the provider from creds and returns the trimmed reply.
func (c *Client) GenerateText(ctx context.Context, req Request, creds Credentials, provider Provider) (string, error) {
	if provider == "" {
		provider = c.opts.DefaultProvider
	}
	resolved, ok := creds.TextProvider(provider)
	if !ok {
		return "", ErrNoCredentials
	}

	var gen TextGenerator
	switch resolved {
	case ProviderAnthropic:
		gen = c.newAnthropicText(creds.AnthropicKey)
	default:
		gen = c.newOpenAIText(creds.OpenAIKey)
	}

	slog.Debug("generating text", "component", "generation", "provider", resolved)

	text, err := gen.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", resolved, ErrEmptyResponse)
	}
	return text, nil
}

// GenerateImage prefers OpenAI when its key is present and falls back to AI Horde.
func (c *Client) GenerateImage(ctx context.Context, prompt string, creds Credentials) (*Image, error) {
	var gen ImageGenerator
	var name string
	switch {
	case creds.OpenAIKey != "":
		gen, name = c.newOpenAIImage(creds.OpenAIKey), "openai"
	case creds.HordeKey != "":
		gen, name = c.newHordeImage(creds.HordeKey), "horde"
	default:
		return nil, ErrNoCredentials
	}

	slog.Debug("generating image", "component", "generation", "provider", name)
	return gen.Generate(ctx, prompt)
}
