package api

import (
	"context"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/types"
)

func TestWithCampaign_RoundTrip(t *testing.T) {
	c := &types.Campaign{ID: "c1", Name: "Drowned City"}
	ctx := WithCampaign(context.Background(), c)

	got, err := CampaignFromContext(ctx)
	if err != nil {
		t.Fatalf("CampaignFromContext returned error: %v", err)
	}
	if got != c {
		t.Error("got different campaign instance, want same instance")
	}
}

func TestCampaignFromContext_Missing(t *testing.T) {
	if _, err := CampaignFromContext(context.Background()); err != ErrNoCampaignInContext {
		t.Errorf("error = %v, want ErrNoCampaignInContext", err)
	}
	ctx := WithCampaign(context.Background(), nil)
	if _, err := CampaignFromContext(ctx); err != ErrNoCampaignInContext {
		t.Errorf("nil campaign: error = %v, want ErrNoCampaignInContext", err)
	}
}

func TestMustCampaignFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when no campaign in context")
		}
	}()
	MustCampaignFromContext(context.Background())
}
