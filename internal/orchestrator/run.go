package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/metrics"
	"github.com/hyperengineering/tablekeep/internal/parse"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/tables"
	"github.com/hyperengineering/tablekeep/internal/types"
)

// errMalformed marks AI output from which no field could be recovered.
var errMalformed = errors.New("unusable generation output")

func newULID() string {
	return ulid.Make().String()
}

// run is the state of one Generate call.
type run struct {
	o     *Orchestrator
	req   Request
	batch *Batch
	set   *tables.TableSet
	useAI bool
}

// frameRecords saves the starting quests and session-zero player locations
// carried in the frame itself.
func (r *run) frameRecords(ctx context.Context) error {
	quests := r.req.Frame.StartingQuests
	var places []types.PlayerLocation
	if sz := r.req.Frame.SessionZero; sz != nil {
		places = sz.PlayerLocations
	}
	r.req.report(2, "Saving %d starting quests and %d player locations...", len(quests), len(places))

	for i, q := range quests {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.batch.Quests = append(r.batch.Quests, q)
		r.o.metrics.ItemGenerated(string(types.KindQuest), metrics.SourceDerived)
		r.save(ctx, q, i, metrics.SourceDerived, "")
	}
	for i, p := range places {
		if err := ctx.Err(); err != nil {
			return err
		}
		loc := playerLocation(p)
		r.batch.PlayerLocations = append(r.batch.PlayerLocations, loc)
		r.o.metrics.ItemGenerated(string(types.KindLocation), metrics.SourceDerived)
		r.save(ctx, loc, i, metrics.SourceDerived, "")
	}
	return nil
}

func playerLocation(p types.PlayerLocation) types.Location {
	loc := types.Location{
		Name:        p.Name,
		Type:        types.LocationOther,
		Description: p.Description,
	}
	if p.MentionedBy != "" {
		loc.Inhabitants = "Introduced by " + p.MentionedBy + " during session zero"
	}
	return loc
}

func (r *run) npcs(ctx context.Context) error {
	n := r.o.counts.NPCs
	r.req.report(3, "Saving %d NPCs...", n)
	return produceN(ctx, r, types.KindNPC, n, func(ctx context.Context, existing []string, i int) (types.NPC, string, string, error) {
		return produce(ctx, r, types.CategoryNPC, existing, r.o.prompts.NPC, parse.NPC,
			func() (types.NPC, error) { return r.o.tables.NPC(r.set) })
	}, func(npc types.NPC) { r.batch.NPCs = append(r.batch.NPCs, npc) })
}

func (r *run) locations(ctx context.Context) error {
	n := r.o.counts.Locations
	r.req.report(4, "Saving %d locations...", n)
	return produceN(ctx, r, types.KindLocation, n, func(ctx context.Context, existing []string, i int) (types.Location, string, string, error) {
		return produce(ctx, r, types.CategoryLocation, existing, r.o.prompts.Location, parse.Location,
			func() (types.Location, error) { return r.o.tables.Location(r.set) })
	}, func(loc types.Location) { r.batch.Locations = append(r.batch.Locations, loc) })
}

func (r *run) loreEncountersTimeline(ctx context.Context) error {
	timeline := Timeline(r.req.Frame)
	r.req.report(5, "Saving %d lore entries, %d encounters and %d timeline events...",
		r.o.counts.Lore, r.o.counts.Encounters, len(timeline))

	frame := r.req.Frame
	err := produceN(ctx, r, types.KindLore, r.o.counts.Lore, func(ctx context.Context, existing []string, i int) (types.Lore, string, string, error) {
		return produce(ctx, r, types.CategoryLore, existing, r.o.prompts.Lore, parse.Lore,
			func() (types.Lore, error) { return r.o.tables.Lore(r.set, frame, i) })
	}, func(l types.Lore) { r.batch.Lore = append(r.batch.Lore, l) })
	if err != nil {
		return err
	}

	encounterPrompt := func(c prompt.Context) (generation.Request, error) {
		return r.o.prompts.Encounter(c, prompt.DefaultPartyLevel)
	}
	err = produceN(ctx, r, types.KindEncounter, r.o.counts.Encounters, func(ctx context.Context, existing []string, i int) (types.Encounter, string, string, error) {
		return produce(ctx, r, types.CategoryEncounter, existing, encounterPrompt, parse.Encounter,
			func() (types.Encounter, error) { return r.o.tables.Encounter(r.set, frame, i) })
	}, func(e types.Encounter) { r.batch.Encounters = append(r.batch.Encounters, e) })
	if err != nil {
		return err
	}

	for i, ev := range timeline {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.batch.Timeline = append(r.batch.Timeline, ev)
		r.o.metrics.ItemGenerated(string(types.KindTimelineEvent), metrics.SourceDerived)
		r.save(ctx, ev, i, metrics.SourceDerived, "")
	}
	return nil
}

// itemFunc produces the i-th item of a kind given the names produced so far.
// It returns the record, its source, the reason the AI path was abandoned and
// a non-nil error only on cancellation.
type itemFunc[T types.Record] func(ctx context.Context, existing []string, i int) (T, string, string, error)

// produceN produces and saves n items in order.
func produceN[T types.Record](ctx context.Context, r *run, kind types.EntityKind, n int, one itemFunc[T], add func(T)) error {
	var existing []string
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, source, genErr, err := one(ctx, existing, i)
		if err != nil {
			return err
		}
		if source == "" {
			slog.Error("item could not be produced",
				"component", "orchestrator",
				"campaign_id", r.req.Campaign.ID,
				"kind", kind,
				"index", i,
				"error", genErr,
			)
			r.batch.Results = append(r.batch.Results, Result{Kind: kind, Index: i, GenerationError: genErr})
			continue
		}
		add(rec)
		existing = append(existing, rec.DisplayName())
		r.save(ctx, rec, i, source, genErr)
	}
	return nil
}

// produce tries the AI path for one item and falls back when it is
// unavailable, fails or yields nothing usable.
func produce[T types.Record](
	ctx context.Context,
	r *run,
	category types.Category,
	existing []string,
	build func(prompt.Context) (generation.Request, error),
	parseFn func(string) (T, bool),
	fallback func() (T, error),
) (T, string, string, error) {
	var zero T
	var genErr string

	if r.useAI {
		rec, err := ask(ctx, r, existing, build, parseFn)
		if err == nil {
			r.o.metrics.ItemGenerated(string(category), metrics.SourceAI)
			return rec, metrics.SourceAI, "", nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, "", "", ctxErr
		}
		genErr = err.Error()
		r.o.metrics.GenerationFailed(string(category))
		slog.Warn("generation failed, using fallback",
			"component", "orchestrator",
			"campaign_id", r.req.Campaign.ID,
			"category", category,
			"error", err,
		)
	}

	rec, err := fallback()
	if err != nil {
		if genErr != "" {
			return zero, "", genErr + "; fallback: " + err.Error(), nil
		}
		return zero, "", err.Error(), nil
	}
	r.o.metrics.ItemGenerated(string(category), metrics.SourceTemplate)
	return rec, metrics.SourceTemplate, genErr, nil
}

// ask runs one prompt through the backend and parses the reply.
func ask[T types.Record](
	ctx context.Context,
	r *run,
	existing []string,
	build func(prompt.Context) (generation.Request, error),
	parseFn func(string) (T, bool),
) (T, error) {
	var zero T
	greq, err := build(r.promptContext(existing))
	if err != nil {
		return zero, err
	}
	raw, err := r.o.backend.GenerateText(ctx, greq, r.req.Credentials, r.req.Provider)
	if err != nil {
		return zero, err
	}
	rec, ok := parseFn(raw)
	if !ok {
		return zero, errMalformed
	}
	return rec, nil
}

func (r *run) promptContext(existing []string) prompt.Context {
	return prompt.Context{
		Campaign: r.req.Campaign,
		Frame:    r.req.Frame,
		Existing: existing,
	}
}

// save persists rec and records the result. Failures are logged and
// contained; the item stays in the batch.
func (r *run) save(ctx context.Context, rec types.Record, index int, source, genErr string) {
	res := Result{
		Kind:            rec.Kind(),
		Index:           index,
		Name:            rec.DisplayName(),
		Source:          source,
		GenerationError: genErr,
	}
	entity, err := r.o.entities.CreateEntity(ctx, r.req.Campaign.ID, rec)
	if err != nil {
		res.SaveError = fmt.Sprintf("save %s %q: %v", rec.Kind(), rec.DisplayName(), err)
		r.o.metrics.SaveFailed(string(rec.Kind()))
		slog.Warn("failed to save generated item",
			"component", "orchestrator",
			"campaign_id", r.req.Campaign.ID,
			"kind", rec.Kind(),
			"name", rec.DisplayName(),
			"error", err,
		)
	} else {
		res.EntityID = entity.ID
	}
	r.batch.Results = append(r.batch.Results, res)
}
