package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
)

// ListCampaignsResponse is the body of GET /campaigns.
type ListCampaignsResponse struct {
	Campaigns []types.Campaign `json:"campaigns"`
	Total     int              `json:"total"`
}

// ListEntitiesResponse is the body of GET /campaigns/{campaign_id}/entities.
type ListEntitiesResponse struct {
	Entities []types.Entity `json:"entities"`
	Total    int            `json:"total"`
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req types.NewCampaign
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validation.ValidateNewCampaign(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	c, err := h.store.CreateCampaign(r.Context(), req)
	if err != nil {
		slog.Error("campaign create failed", "request_id", GetRequestID(r.Context()), "error", err)
		MapStoreError(w, r, err)
		return
	}

	slog.Info("campaign created",
		"component", "api",
		"campaign_id", c.ID,
		"game_system", c.GameSystem,
	)
	writeJSON(w, http.StatusCreated, c)
}

// ListCampaigns handles GET /api/v1/campaigns?owner_id=
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.store.ListCampaigns(r.Context(), r.URL.Query().Get("owner_id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []types.Campaign{}
	}
	writeJSON(w, http.StatusOK, ListCampaignsResponse{Campaigns: campaigns, Total: len(campaigns)})
}

// GetCampaign handles GET /api/v1/campaigns/{campaign_id}
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MustCampaignFromContext(r.Context()))
}

// ListEntities handles GET /api/v1/campaigns/{campaign_id}/entities?kind=
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	c := MustCampaignFromContext(r.Context())

	kind := types.EntityKind(r.URL.Query().Get("kind"))
	if kind != "" {
		if verr := validation.ValidateEnum("kind", string(kind), entityKindNames); verr != nil {
			WriteProblem(w, r, http.StatusBadRequest, verr.Field+" "+verr.Message)
			return
		}
	}

	entities, err := h.store.ListEntities(r.Context(), c.ID, kind)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if entities == nil {
		entities = []types.Entity{}
	}
	writeJSON(w, http.StatusOK, ListEntitiesResponse{Entities: entities, Total: len(entities)})
}

// GetEntity handles GET /api/v1/campaigns/{campaign_id}/entities/{entity_id}
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	c := MustCampaignFromContext(r.Context())

	e, err := h.store.GetEntity(r.Context(), chi.URLParam(r, "entity_id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	// Entities of other campaigns are not visible through this one.
	if e.CampaignID != c.ID {
		WriteProblem(w, r, http.StatusNotFound, "Entity not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

var entityKindNames = func() []string {
	names := make([]string, len(types.EntityKinds))
	for i, k := range types.EntityKinds {
		names[i] = string(k)
	}
	return names
}()
