package generation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opd-ai/horde"
)

// HordeService abstracts the AI Horde client calls used by HordeImage.
type HordeService interface {
	Render(prompt string) ([]byte, error)
}

// hordeClient runs the request/wait/download cycle against AI Horde.
type hordeClient struct {
	client *horde.Client
}

func (h *hordeClient) Render(prompt string) ([]byte, error) {
	resp, err := h.client.RequestGeneration(horde.GenerationRequest{
		Prompt: prompt,
		Params: horde.Params{
			Steps:     horde.DefaultSteps,
			Width:     horde.DefaultWidth,
			Height:    horde.DefaultHeight,
			ModelName: horde.DefaultModel,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting generation: %w", err)
	}

	status, err := h.client.WaitForCompletion(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("waiting for completion: %w", err)
	}
	if len(status.Generation) == 0 {
		return nil, ErrEmptyResponse
	}

	data, err := h.client.DownloadImage(status.Generation[0].Image)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	return data, nil
}

// HordeImage generates images on the AI Horde community cluster.
type HordeImage struct {
	service HordeService
}

// NewHordeImage creates an image generator bound to apiKey.
func NewHordeImage(apiKey string) *HordeImage {
	return &HordeImage{service: &hordeClient{client: horde.NewClient(apiKey)}}
}

// Generate renders prompt and returns the raw image bytes. The horde client is
// not context-aware, so cancellation abandons the in-flight render.
func (h *HordeImage) Generate(ctx context.Context, prompt string) (*Image, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := h.service.Render(prompt)
		done <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("horde image generation failed: %w", r.err)
		}
		if len(r.data) == 0 {
			return nil, fmt.Errorf("horde image generation: %w", ErrEmptyResponse)
		}
		return &Image{Data: r.data, ContentType: http.DetectContentType(r.data)}, nil
	}
}
