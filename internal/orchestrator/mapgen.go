package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/tablekeep/internal/blob"
	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/parse"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/types"
)

// maxImageBytes caps how much of a provider-hosted image is fetched.
const maxImageBytes = 20 << 20

// worldMap produces the optional world map. Nothing here can fail the run
// except cancellation.
func (r *run) worldMap(ctx context.Context) error {
	r.req.report(6, "Generating world map...")
	if !r.useAI {
		return nil
	}

	names := make([]string, 0, len(r.batch.Locations)+len(r.batch.PlayerLocations))
	for _, l := range r.batch.Locations {
		names = append(names, l.Name)
	}
	for _, l := range r.batch.PlayerLocations {
		names = append(names, l.Name)
	}

	build := func(c prompt.Context) (generation.Request, error) {
		return r.o.prompts.Map(c, types.MapWorld, names)
	}
	parseWorld := func(raw string) (types.Map, bool) {
		return parse.Map(raw, types.MapWorld)
	}
	m, err := ask(ctx, r, nil, build, parseWorld)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		r.o.metrics.GenerationFailed(string(types.CategoryMap))
		slog.Warn("world map generation failed",
			"component", "orchestrator",
			"campaign_id", r.req.Campaign.ID,
			"error", err,
		)
		r.batch.Results = append(r.batch.Results, Result{Kind: types.KindMap, GenerationError: err.Error()})
		return nil
	}

	if r.req.Credentials.HasImage() {
		m.ImageURL = r.mapImage(ctx, m)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}

	r.o.metrics.ItemGenerated(string(types.CategoryMap), metrics.SourceAI)
	r.batch.Map = &m
	r.save(ctx, m, 0, metrics.SourceAI, "")
	return nil
}

// mapImage renders the map and returns where it can be viewed: the blob
// store URL when the upload succeeds, else the provider's URL, else "".
func (r *run) mapImage(ctx context.Context, m types.Map) string {
	log := slog.With("component", "orchestrator", "campaign_id", r.req.Campaign.ID)

	imgPrompt, err := r.o.prompts.MapImage(m, r.req.Frame, string(r.set.Genre))
	if err != nil {
		log.Warn("map image prompt failed", "error", err)
		return ""
	}
	img, err := r.o.backend.GenerateImage(ctx, imgPrompt, r.req.Credentials)
	if err != nil {
		r.o.metrics.GenerationFailed("map_image")
		log.Warn("map image generation failed", "error", err)
		return ""
	}
	if _, noop := r.o.blobs.(blob.NoopStore); noop {
		if img.URL == "" {
			log.Info("map image discarded, blob storage not configured")
		}
		return img.URL
	}

	data := img.Data
	if len(data) == 0 {
		if img.URL == "" {
			return ""
		}
		data, err = r.fetch(ctx, img.URL)
		if err != nil {
			log.Warn("map image fetch failed, keeping provider URL", "error", err)
			return img.URL
		}
	}

	key := blob.MapImageKey(r.req.Campaign.ID, r.o.newID(), img.ContentType)
	url, err := r.o.blobs.Upload(ctx, key, data, img.ContentType)
	if err != nil {
		if !errors.Is(err, blob.ErrNotConfigured) {
			log.Warn("map image upload failed, keeping provider URL", "error", err)
		}
		return img.URL
	}
	slog.Info("map image uploaded",
		"component", "orchestrator",
		"campaign_id", r.req.Campaign.ID,
		"key", key,
		"bytes", len(data),
	)
	return url
}

func (r *run) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
