package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/types"
)

// DraftStore is the durable frame store the wizard writes through.
type DraftStore interface {
	SaveDraft(ctx context.Context, snap types.FrameSnapshot) error
	FinalizeFrame(ctx context.Context, snap types.FrameSnapshot) (*types.FrameSnapshot, error)
	LoadFrame(ctx context.Context, campaignID string) (*types.FrameSnapshot, error)
}

// Checkpointer fronts the two checkpoint tiers. The local tier records step
// position on every move; the durable tier records the whole frame on
// explicit saves. They are written independently.
type Checkpointer struct {
	local   *LocalCache
	durable DraftStore
}

// NewCheckpointer combines a local cache and a durable draft store.
func NewCheckpointer(local *LocalCache, durable DraftStore) *Checkpointer {
	return &Checkpointer{local: local, durable: durable}
}

// Source says where restored state came from.
type Source string

const (
	SourceNone    Source = "none"
	SourceDurable Source = "durable"
	SourceLocal   Source = "local"
)

// Restored is the state recovered for a campaign on mount.
type Restored struct {
	Source     Source
	Frame      types.CampaignFrame
	Progress   types.Progress
	TemplateID string
	Status     types.FrameStatus
}

// Progress schedules a debounced local write.
func (c *Checkpointer) Progress(campaignID string, p types.Progress) {
	c.local.Schedule(campaignID, p)
}

// Draft writes the full snapshot to the durable store.
func (c *Checkpointer) Draft(ctx context.Context, snap types.FrameSnapshot) error {
	return c.durable.SaveDraft(ctx, snap)
}

// Finalize completes the frame in the durable store.
func (c *Checkpointer) Finalize(ctx context.Context, snap types.FrameSnapshot) (*types.FrameSnapshot, error) {
	return c.durable.FinalizeFrame(ctx, snap)
}

// Discard clears local progress for campaignID.
func (c *Checkpointer) Discard(campaignID string) {
	c.local.Clear(campaignID)
}

// Restore recovers state for campaignID. A durable frame always wins; the
// local cache is only consulted when none exists.
func (c *Checkpointer) Restore(ctx context.Context, campaignID string) (*Restored, error) {
	snap, err := c.durable.LoadFrame(ctx, campaignID)
	switch {
	case err == nil:
		frame, err := snap.Frame()
		if err != nil {
			return nil, fmt.Errorf("decode stored frame: %w", err)
		}
		return &Restored{
			Source:     SourceDurable,
			Frame:      frame,
			Progress:   snap.Progress,
			TemplateID: snap.TemplateID,
			Status:     snap.Status,
		}, nil
	case errors.Is(err, store.ErrFrameNotFound):
		// fall through to the local tier
	default:
		return nil, fmt.Errorf("load frame: %w", err)
	}

	if p, ok := c.local.Load(campaignID); ok {
		return &Restored{Source: SourceLocal, Progress: p, Status: types.FrameDraft}, nil
	}
	return &Restored{Source: SourceNone, Status: types.FrameDraft}, nil
}
