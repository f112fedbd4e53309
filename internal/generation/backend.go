// Package generation adapts text and image generation providers behind a
// provider-agnostic Backend.
package generation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is returned when no key for a usable provider was supplied.
	ErrNoCredentials = errors.New("no generation credentials")
	// ErrRateLimited is returned by Gate when a call arrives within the minimum interval.
	ErrRateLimited = errors.New("generation rate limited")
	// ErrEmptyResponse is returned when a provider answers with no content.
	ErrEmptyResponse = errors.New("empty generation response")
)

// Provider names a text generation vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider validates a provider name. Empty selects no preference.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case "", ProviderOpenAI, ProviderAnthropic:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Credentials carries caller-supplied provider keys. They are passed per call
// and never read from ambient state.
type Credentials struct {
	OpenAIKey    string
	AnthropicKey string
	HordeKey     string
}

// HasText reports whether any text-capable key is present.
func (c Credentials) HasText() bool {
	return c.OpenAIKey != "" || c.AnthropicKey != ""
}

// HasImage reports whether any image-capable key is present.
func (c Credentials) HasImage() bool {
	return c.OpenAIKey != "" || c.HordeKey != ""
}

// TextProvider resolves the provider to use. The preferred provider wins when
// its key is present; otherwise whichever key exists is used.
func (c Credentials) TextProvider(preferred Provider) (Provider, bool) {
	switch preferred {
	case ProviderOpenAI:
		if c.OpenAIKey != "" {
			return ProviderOpenAI, true
		}
	case ProviderAnthropic:
		if c.AnthropicKey != "" {
			return ProviderAnthropic, true
		}
	}
	if c.OpenAIKey != "" {
		return ProviderOpenAI, true
	}
	if c.AnthropicKey != "" {
		return ProviderAnthropic, true
	}
	return "", false
}

// Merge fills empty keys in c from fallback.
func (c Credentials) Merge(fallback Credentials) Credentials {
	if c.OpenAIKey == "" {
		c.OpenAIKey = fallback.OpenAIKey
	}
	if c.AnthropicKey == "" {
		c.AnthropicKey = fallback.AnthropicKey
	}
	if c.HordeKey == "" {
		c.HordeKey = fallback.HordeKey
	}
	return c
}

// Request is a single text generation call.
type Request struct {
	System string
	User   string
	// MaxTokens overrides the client default when positive.
	MaxTokens int64
}

// Image is a generated image. Providers return either a hosted URL or raw bytes.
type Image struct {
	URL         string
	Data        []byte
	ContentType string
}

// Backend is the provider-agnostic generation contract.
type Backend interface {
	GenerateText(ctx context.Context, req Request, creds Credentials, provider Provider) (string, error)
	GenerateImage(ctx context.Context, prompt string, creds Credentials) (*Image, error)
}
