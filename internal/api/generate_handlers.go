package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/tablekeep/internal/generation"
	"github.com/hyperengineering/tablekeep/internal/orchestrator"
	"github.com/hyperengineering/tablekeep/internal/parse"
	"github.com/hyperengineering/tablekeep/internal/prompt"
	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
)

// Interactive outcomes recorded in metrics.
const (
	outcomeParsed    = "parsed"
	outcomeDefaulted = "defaulted"
	outcomeFailed    = "failed"
)

// GenerateItemRequest is the body of POST /generate/{category}.
type GenerateItemRequest struct {
	Requirements string `json:"requirements,omitempty"`
	// MapType applies to the map category only. Defaults to world.
	MapType types.MapType `json:"map_type,omitempty"`
}

// GenerateItemResponse carries one unsaved record.
type GenerateItemResponse struct {
	Category types.Category `json:"category"`
	Record   types.Record   `json:"record"`
	// Parsed is false when nothing usable was recovered and the record is all
	// defaults.
	Parsed bool `json:"parsed"`
}

// SuggestFieldResponse carries a suggested value for one frame field.
type SuggestFieldResponse struct {
	Field types.Field `json:"field"`
	Value any         `json:"value"`
}

// GenerateContent handles POST /api/v1/campaigns/{campaign_id}/generate
// It reruns content generation for a campaign whose frame is completed.
func (h *Handler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	c := MustCampaignFromContext(r.Context())
	creds, provider, err := h.requestCredentials(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.store.LoadFrame(r.Context(), c.ID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if snap.Status != types.FrameCompleted {
		WriteProblemConflict(w, r, "Campaign frame is still a draft")
		return
	}
	frame, err := snap.Frame()
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	var progress []string
	batch, err := h.orchestrator.Generate(r.Context(), orchestrator.Request{
		Campaign:    *c,
		Frame:       frame,
		Credentials: creds,
		Provider:    provider,
		Progress:    func(line string) { progress = append(progress, line) },
	})
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Batch: batch, Summary: batch.Summary(), Progress: progress})
}

// GenerateItem handles POST /api/v1/campaigns/{campaign_id}/generate/{category}
// The record is returned for review and is not saved.
func (h *Handler) GenerateItem(w http.ResponseWriter, r *http.Request) {
	category := types.Category(chi.URLParam(r, "category"))
	if !isCategory(category) {
		WriteProblem(w, r, http.StatusBadRequest, "Unknown content category: "+string(category))
		return
	}
	var req GenerateItemRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	mapType := types.MapWorld
	if category == types.CategoryMap {
		var verr *validation.ValidationError
		if mapType, verr = normalizeMapType(req.MapType); verr != nil {
			WriteProblem(w, r, http.StatusBadRequest, verr.Field+" "+verr.Message)
			return
		}
	}

	pc, ok := h.promptContext(w, r, types.EntityKind(category), req.Requirements)
	if !ok {
		return
	}

	var genReq generation.Request
	var err error
	switch category {
	case types.CategoryMap:
		var locations []string
		locations, err = h.entityNames(r.Context(), pc.Campaign.ID, types.KindLocation)
		if err == nil {
			genReq, err = h.prompts.Map(pc, mapType, locations)
		}
	default:
		genReq, err = h.prompts.For(category, pc)
	}
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	raw, ok := h.generate(w, r, string(category), genReq)
	if !ok {
		return
	}

	record, parsed := parseRecord(category, mapType, raw)
	h.metrics.Interactive(string(category), outcome(parsed))
	writeJSON(w, http.StatusOK, GenerateItemResponse{Category: category, Record: record, Parsed: parsed})
}

// SuggestField handles POST /api/v1/campaigns/{campaign_id}/wizard/suggest/{field}
// The suggestion is returned for the user to accept; the frame is unchanged.
func (h *Handler) SuggestField(w http.ResponseWriter, r *http.Request) {
	field, ok := types.ParseField(chi.URLParam(r, "field"))
	if !ok {
		WriteProblem(w, r, http.StatusBadRequest, "Unknown frame field: "+chi.URLParam(r, "field"))
		return
	}
	var req GenerateItemRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	pc, ok := h.promptContext(w, r, "", req.Requirements)
	if !ok {
		return
	}
	genReq, err := h.prompts.FrameField(pc, field)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	raw, ok := h.generate(w, r, string(field), genReq)
	if !ok {
		return
	}
	h.metrics.Interactive(string(field), outcomeParsed)
	writeJSON(w, http.StatusOK, SuggestFieldResponse{Field: field, Value: parse.FrameField(field, raw)})
}

// promptContext assembles the campaign, its in-progress frame and the names
// of existing content of kind. An empty kind skips the listing.
func (h *Handler) promptContext(w http.ResponseWriter, r *http.Request, kind types.EntityKind, requirements string) (prompt.Context, bool) {
	c := MustCampaignFromContext(r.Context())
	wz, ok := h.session(w, r)
	if !ok {
		return prompt.Context{}, false
	}
	pc := prompt.Context{
		Campaign:     *c,
		Frame:        wz.State().Frame,
		Requirements: requirements,
	}
	if kind != "" {
		names, err := h.entityNames(r.Context(), c.ID, kind)
		if err != nil {
			MapStoreError(w, r, err)
			return prompt.Context{}, false
		}
		pc.Existing = names
	}
	return pc, true
}

func (h *Handler) entityNames(ctx context.Context, campaignID string, kind types.EntityKind) ([]string, error) {
	entities, err := h.store.ListEntities(ctx, campaignID, kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names, nil
}

// generate calls the interactive backend. Provider failures other than
// missing keys and rate limiting surface as 502.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, label string, req generation.Request) (string, bool) {
	creds, provider, err := h.requestCredentials(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return "", false
	}

	raw, err := h.interactive.GenerateText(r.Context(), req, creds, provider)
	if err != nil {
		h.metrics.Interactive(label, outcomeFailed)
		switch {
		case errors.Is(err, generation.ErrNoCredentials), errors.Is(err, generation.ErrRateLimited):
			MapStoreError(w, r, err)
		default:
			slog.Warn("interactive generation failed",
				"component", "api",
				"request_id", GetRequestID(r.Context()),
				"target", label,
				"error", err,
			)
			WriteProblem(w, r, http.StatusBadGateway, "Generation provider failed")
		}
		return "", false
	}
	return raw, true
}

func parseRecord(category types.Category, mapType types.MapType, raw string) (types.Record, bool) {
	switch category {
	case types.CategoryNPC:
		return parse.NPC(raw)
	case types.CategoryLocation:
		return parse.Location(raw)
	case types.CategoryEncounter:
		return parse.Encounter(raw)
	case types.CategoryLore:
		return parse.Lore(raw)
	case types.CategoryMap:
		return parse.Map(raw, mapType)
	}
	return nil, false
}

// normalizeMapType lowercases t and defaults it to world.
func normalizeMapType(t types.MapType) (types.MapType, *validation.ValidationError) {
	v := strings.ToLower(strings.TrimSpace(string(t)))
	if v == "" {
		return types.MapWorld, nil
	}
	if verr := validation.ValidateEnum("map_type", v, types.MapTypes); verr != nil {
		return "", verr
	}
	return types.MapType(v), nil
}

func outcome(parsed bool) string {
	if parsed {
		return outcomeParsed
	}
	return outcomeDefaulted
}

func isCategory(c types.Category) bool {
	for _, known := range types.Categories {
		if c == known {
			return true
		}
	}
	return false
}
