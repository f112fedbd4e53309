package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/hyperengineering/tablekeep/internal/validation"
)

// campaignContextKey is the context key for the resolved campaign.
type campaignContextKey struct{}

// ErrNoCampaignInContext indicates no campaign was found in the context.
var ErrNoCampaignInContext = errors.New("no campaign in context")

// WithCampaign returns a new context with the campaign attached.
func WithCampaign(ctx context.Context, c *types.Campaign) context.Context {
	return context.WithValue(ctx, campaignContextKey{}, c)
}

// CampaignFromContext extracts the campaign from the context.
// Returns ErrNoCampaignInContext if not present or nil.
func CampaignFromContext(ctx context.Context) (*types.Campaign, error) {
	c, ok := ctx.Value(campaignContextKey{}).(*types.Campaign)
	if !ok || c == nil {
		return nil, ErrNoCampaignInContext
	}
	return c, nil
}

// MustCampaignFromContext extracts the campaign or panics.
// Use only when CampaignMiddleware guarantees campaign presence.
func MustCampaignFromContext(ctx context.Context) *types.Campaign {
	c, err := CampaignFromContext(ctx)
	if err != nil {
		panic("campaign not in context: middleware misconfiguration")
	}
	return c
}

// CampaignMiddleware resolves the {campaign_id} URL parameter and attaches
// the campaign to the request context. Malformed ids get 400, unknown ids 404.
func (h *Handler) CampaignMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "campaign_id")
		if verr := validation.ValidateULID("campaign_id", id); verr != nil {
			WriteProblem(w, r, http.StatusBadRequest, verr.Field+" "+verr.Message)
			return
		}
		c, err := h.store.GetCampaign(r.Context(), id)
		if err != nil {
			MapStoreError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCampaign(r.Context(), c)))
	})
}
