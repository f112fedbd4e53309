package generation

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatCompletionsService defines the chat completion call used by OpenAIText.
// This abstraction enables testing without calling the real OpenAI API.
type ChatCompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ImagesService defines the image generation call used by OpenAIImage.
type ImagesService interface {
	Generate(ctx context.Context, params openai.ImageGenerateParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// OpenAIText generates text with OpenAI chat completions.
type OpenAIText struct {
	completions ChatCompletionsService
	model       string
	maxTokens   int64
}

// NewOpenAIText creates a chat generator bound to apiKey.
func NewOpenAIText(apiKey, model string, maxTokens int64) *OpenAIText {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIText{
		completions: client.Chat.Completions,
		model:       model,
		maxTokens:   maxTokens,
	}
}

// Complete runs one system+user chat completion.
func (o *OpenAIText) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := o.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(openai.ChatModel(o.model)),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.F(maxTokens)
	}

	resp, err := o.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIImage generates images with the OpenAI images API.
type OpenAIImage struct {
	images ImagesService
	model  string
}

// NewOpenAIImage creates an image generator bound to apiKey.
func NewOpenAIImage(apiKey, model string) *OpenAIImage {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIImage{
		images: client.Images,
		model:  model,
	}
}

// Generate produces a single 1024x1024 image and returns its hosted URL.
// Base64 payloads are decoded when the API returns inline data instead.
func (o *OpenAIImage) Generate(ctx context.Context, prompt string) (*Image, error) {
	resp, err := o.images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         openai.F(prompt),
		Model:          openai.F(openai.ImageModel(o.model)),
		N:              openai.F(int64(1)),
		Size:           openai.F(openai.ImageGenerateParamsSize1024x1024),
		ResponseFormat: openai.F(openai.ImageGenerateParamsResponseFormatURL),
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai image generation: %w", ErrEmptyResponse)
	}

	img := resp.Data[0]
	if img.URL != "" {
		return &Image{URL: img.URL, ContentType: "image/png"}, nil
	}
	if img.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return &Image{Data: data, ContentType: "image/png"}, nil
	}
	return nil, fmt.Errorf("openai image generation: %w", ErrEmptyResponse)
}
