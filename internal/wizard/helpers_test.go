package wizard

import (
	"context"
	"sync"
	"testing"

	"github.com/hyperengineering/tablekeep/internal/store"
	"github.com/hyperengineering/tablekeep/internal/types"
)

// fakeDrafts is an in-memory DraftStore.
type fakeDrafts struct {
	mu          sync.Mutex
	frames      map[string]types.FrameSnapshot
	saveErr     error
	finalizeErr error
	saves       int
	finalizes   int
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{frames: make(map[string]types.FrameSnapshot)}
}

func (f *fakeDrafts) SaveDraft(ctx context.Context, snap types.FrameSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	if cur, ok := f.frames[snap.CampaignID]; ok && cur.Status == types.FrameCompleted {
		return store.ErrFrameCompleted
	}
	snap.Status = types.FrameDraft
	f.frames[snap.CampaignID] = snap
	return nil
}

func (f *fakeDrafts) FinalizeFrame(ctx context.Context, snap types.FrameSnapshot) (*types.FrameSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizes++
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	snap.Status = types.FrameCompleted
	f.frames[snap.CampaignID] = snap
	return &snap, nil
}

func (f *fakeDrafts) LoadFrame(ctx context.Context, campaignID string) (*types.FrameSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.frames[campaignID]
	if !ok {
		return nil, store.ErrFrameNotFound
	}
	return &snap, nil
}

func (f *fakeDrafts) get(campaignID string) (types.FrameSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.frames[campaignID]
	return snap, ok
}

// newTestCache returns a cache that commits immediately.
func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewLocalCache(CacheOptions{})
	if err != nil {
		t.Fatalf("NewLocalCache() error = %v", err)
	}
	return c
}

func newTestWizard(t *testing.T, opts Options) (*Wizard, *fakeDrafts, *LocalCache) {
	t.Helper()
	drafts := newFakeDrafts()
	cache := newTestCache(t)
	return New("camp-1", NewCheckpointer(cache, drafts), opts), drafts, cache
}
