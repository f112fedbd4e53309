// Package orchestrator turns a completed campaign frame into starter content.
// Items are produced one at a time in a fixed order, each saved as soon as it
// exists, and no single failure stops the run.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/tablekeep/internal/blob"
	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/tables"
	"github.com/hyperengineering/tablekeep/internal/types"
)

// EntityStore persists individual generated items.
// Implemented by store.SQLiteStore.
type EntityStore interface {
	CreateEntity(ctx context.Context, campaignID string, rec types.Record) (*types.Entity, error)
}

// Completer finalizes a campaign frame. Implemented by wizard.Wizard.
type Completer interface {
	Complete(ctx context.Context) (*types.FrameSnapshot, error)
}

// Quantities sets how many items of each AI-capable kind are produced.
type Quantities struct {
	NPCs       int
	Locations  int
	Lore       int
	Encounters int
}

// DefaultQuantities is five NPCs, four locations, three lore entries and two
// encounters.
var DefaultQuantities = Quantities{NPCs: 5, Locations: 4, Lore: 3, Encounters: 2}

// Request is one campaign's generation run. Credentials and provider are
// supplied by the caller per run.
type Request struct {
	Campaign    types.Campaign
	Frame       types.CampaignFrame
	Credentials generation.Credentials
	Provider    generation.Provider
	// Progress, if set, receives one line per stage.
	Progress func(string)
}

func (r Request) report(step int, format string, args ...any) {
	if r.Progress == nil {
		return
	}
	r.Progress(fmt.Sprintf("Step %d/%d: ", step, totalSteps) + fmt.Sprintf(format, args...))
}

func (r Request) say(msg string) {
	if r.Progress != nil {
		r.Progress(msg)
	}
}

const totalSteps = 6

// Orchestrator runs campaign content generation.
type Orchestrator struct {
	backend    generation.Backend
	prompts    *prompt.Builder
	tables     *tables.Generator
	entities   EntityStore
	blobs      blob.Store
	metrics    *metrics.Metrics
	counts     Quantities
	httpClient *http.Client
	newID      func() string
	tablesFor  func(gameSystem string) *tables.TableSet
}

// Options configures an Orchestrator. Zero fields take defaults.
type Options struct {
	Counts     Quantities
	Blobs      blob.Store
	Metrics    *metrics.Metrics
	Tables     *tables.Generator
	HTTPClient *http.Client
	// NewID names uploaded map images.
	NewID func() string
	// TablesFor picks the genre tables for a game system.
	TablesFor func(gameSystem string) *tables.TableSet
}

// New creates an Orchestrator. backend is usually a generation.Retrying.
func New(backend generation.Backend, prompts *prompt.Builder, entities EntityStore, opts Options) *Orchestrator {
	o := &Orchestrator{
		backend:    backend,
		prompts:    prompts,
		entities:   entities,
		blobs:      opts.Blobs,
		metrics:    opts.Metrics,
		tables:     opts.Tables,
		counts:     opts.Counts,
		httpClient: opts.HTTPClient,
		newID:      opts.NewID,
		tablesFor:  opts.TablesFor,
	}
	if o.counts == (Quantities{}) {
		o.counts = DefaultQuantities
	}
	if o.blobs == nil {
		o.blobs = blob.NoopStore{}
	}
	if o.tables == nil {
		o.tables = tables.NewRandomGenerator()
	}
	if o.httpClient == nil {
		o.httpClient = http.DefaultClient
	}
	if o.newID == nil {
		o.newID = newULID
	}
	if o.tablesFor == nil {
		o.tablesFor = tables.ForGameSystem
	}
	return o
}

// Finish finalizes the frame and then generates content from it. A finalize
// failure is the only error that stops the run before generation starts.
func (o *Orchestrator) Finish(ctx context.Context, completer Completer, req Request) (*Batch, error) {
	req.report(1, "Finalizing campaign frame...")
	snap, err := completer.Complete(ctx)
	if err != nil {
		return nil, err
	}
	frame, err := snap.Frame()
	if err != nil {
		return nil, fmt.Errorf("decode finalized frame: %w", err)
	}
	req.Frame = frame
	return o.Generate(ctx, req)
}

// Generate produces and saves content for a finalized frame. It returns an
// error only when ctx is cancelled; the partial batch is returned with it and
// items already saved stay saved.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Batch, error) {
	run := &run{
		o:     o,
		req:   req,
		batch: newBatch(req.Campaign.ID),
		set:   o.tablesFor(req.Campaign.GameSystem),
		useAI: o.backend != nil && req.Credentials.HasText(),
	}

	slog.Info("campaign generation started",
		"component", "orchestrator",
		"campaign_id", req.Campaign.ID,
		"genre", run.set.Genre,
		"ai", run.useAI,
	)

	stages := []func(context.Context) error{
		run.frameRecords,
		run.npcs,
		run.locations,
		run.loreEncountersTimeline,
		run.worldMap,
	}
	for _, stage := range stages {
		if err := stage(ctx); err != nil {
			slog.Warn("campaign generation cancelled",
				"component", "orchestrator",
				"campaign_id", req.Campaign.ID,
				"generated", run.batch.Total(),
			)
			return run.batch, err
		}
	}

	failed := run.batch.SaveFailures()
	if failed > 0 {
		req.say(fmt.Sprintf("Done: %d of %d items saved, %d could not be saved",
			run.batch.Total()-failed, run.batch.Total(), failed))
	} else {
		req.say(fmt.Sprintf("Done: %d items saved", run.batch.Total()))
	}

	slog.Info("campaign generation finished",
		"component", "orchestrator",
		"campaign_id", req.Campaign.ID,
		"generated", run.batch.Total(),
		"save_failures", failed,
	)
	return run.batch, nil
}
