package store

import (
	"context"

	"github.com/hyperengineering/tablekeep/internal/types"
)

// Store defines the interface contract for campaign persistence.
type Store interface {
	CreateCampaign(ctx context.Context, c types.NewCampaign) (*types.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*types.Campaign, error)
	ListCampaigns(ctx context.Context, ownerID string) ([]types.Campaign, error)

	// SaveDraft upserts a draft frame. It fails with ErrFrameCompleted once
	// the frame has been finalized.
	SaveDraft(ctx context.Context, snap types.FrameSnapshot) error
	// FinalizeFrame stores the frame with completed status.
	FinalizeFrame(ctx context.Context, snap types.FrameSnapshot) (*types.FrameSnapshot, error)
	LoadFrame(ctx context.Context, campaignID string) (*types.FrameSnapshot, error)

	CreateEntity(ctx context.Context, campaignID string, rec types.Record) (*types.Entity, error)
	GetEntity(ctx context.Context, id string) (*types.Entity, error)
	// ListEntities returns a campaign's entities in creation order. An empty
	// kind lists every kind.
	ListEntities(ctx context.Context, campaignID string, kind types.EntityKind) ([]types.Entity, error)

	Close() error
}
