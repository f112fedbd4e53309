package wizard

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hyperengineering/tablekeep/internal/types"
)

func init() {
	// go-cache persists items through gob, which needs concrete types registered.
	gob.Register(types.Progress{})
}

// DefaultDebounce is how long progress writes are held back.
const DefaultDebounce = 2 * time.Second

// CacheOptions configures a LocalCache.
type CacheOptions struct {
	Debounce time.Duration
	TTL      time.Duration
	// Path, if set, is where entries are loaded from on open and saved on Close.
	Path string
}

// LocalCache is the fast checkpoint tier: step position and completed steps,
// keyed by campaign id, written after a debounce.
type LocalCache struct {
	items    *cache.Cache
	debounce time.Duration
	path     string

	mu      sync.Mutex
	pending map[string]*pendingWrite
}

type pendingWrite struct {
	progress types.Progress
	timer    *time.Timer
}

// NewLocalCache creates a cache. A zero TTL keeps entries forever.
func NewLocalCache(opts CacheOptions) (*LocalCache, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	c := &LocalCache{
		items:    cache.New(ttl, time.Hour),
		debounce: opts.Debounce,
		path:     opts.Path,
		pending:  make(map[string]*pendingWrite),
	}
	if c.path != "" {
		if err := c.items.LoadFile(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load checkpoint cache: %w", err)
		}
	}
	return c, nil
}

// Schedule records progress for campaignID. Calls within the debounce window
// collapse into one write of the latest value.
func (c *LocalCache) Schedule(campaignID string, p types.Progress) {
	p = copyProgress(p)
	if c.debounce <= 0 {
		c.items.Set(campaignID, p, cache.DefaultExpiration)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.pending[campaignID]; ok {
		prev.timer.Stop()
	}
	w := &pendingWrite{progress: p}
	w.timer = time.AfterFunc(c.debounce, func() { c.commit(campaignID, w) })
	c.pending[campaignID] = w
}

// commit writes w if it is still the latest pending write for campaignID.
func (c *LocalCache) commit(campaignID string, w *pendingWrite) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[campaignID] != w {
		return
	}
	delete(c.pending, campaignID)
	c.items.Set(campaignID, w.progress, cache.DefaultExpiration)
}

// Load returns the committed progress for campaignID.
func (c *LocalCache) Load(campaignID string) (types.Progress, bool) {
	v, ok := c.items.Get(campaignID)
	if !ok {
		return types.Progress{}, false
	}
	p, ok := v.(types.Progress)
	return p, ok
}

// Clear drops any pending and committed progress for campaignID.
func (c *LocalCache) Clear(campaignID string) {
	c.mu.Lock()
	if w, ok := c.pending[campaignID]; ok {
		w.timer.Stop()
		delete(c.pending, campaignID)
	}
	c.mu.Unlock()
	c.items.Delete(campaignID)
}

// Flush commits all pending writes immediately.
func (c *LocalCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, w := range c.pending {
		w.timer.Stop()
		c.items.Set(id, w.progress, cache.DefaultExpiration)
		delete(c.pending, id)
	}
}

// Save flushes pending writes and writes the cache to its path, if any.
func (c *LocalCache) Save() error {
	c.Flush()
	if c.path == "" {
		return nil
	}
	if err := c.items.SaveFile(c.path); err != nil {
		return fmt.Errorf("save checkpoint cache: %w", err)
	}
	slog.Debug("checkpoint cache saved",
		"component", "wizard",
		"path", c.path,
		"entries", c.items.ItemCount(),
	)
	return nil
}

// Close saves the cache for the next process to load.
func (c *LocalCache) Close() error {
	return c.Save()
}

func copyProgress(p types.Progress) types.Progress {
	steps := make([]int, len(p.CompletedSteps))
	copy(steps, p.CompletedSteps)
	return types.Progress{StepIndex: p.StepIndex, CompletedSteps: steps}
}
