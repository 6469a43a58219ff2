package records

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"invoicer/internal/cache"
	"invoicer/internal/core"
	applog "invoicer/internal/log"
)

const snapshotKey = "history"

// Cached keeps the last loaded history in memory so repeated reads skip the
// backend. Concurrent cold loads are collapsed into one backend call.
//
// Every Save or Invalidate starts a new generation. A load that began in an
// older generation never populates the cache, and loads are only collapsed
// within the same generation.
type Cached struct {
	next   Store
	cache  *cache.LRUCache[core.Collection]
	group  singleflight.Group
	logger *applog.Logger

	mu  sync.Mutex
	gen uint64
}

// NewCached wraps next. A non-positive ttl keeps the snapshot until the next Save.
func NewCached(next Store, ttl time.Duration, logger *applog.Logger) *Cached {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Cached{
		next:   next,
		cache:  cache.NewLRUCache[core.Collection](1, ttl),
		logger: logger.WithComponent(applog.ComponentCache),
	}
}

// Load returns the cached snapshot or loads it from the wrapped store.
func (c *Cached) Load(ctx context.Context) (core.Collection, error) {
	if snap, ok := c.cache.Get(snapshotKey); ok {
		return snap.Clone(), nil
	}
	gen := c.generation()
	v, err, shared := c.group.Do(snapshotKey+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		loaded, err := c.next.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.cache.Set(snapshotKey, loaded.Clone())
		}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "History load shared with a concurrent caller")
	}
	return v.(core.Collection).Clone(), nil
}

// Save writes through to the wrapped store and refreshes the snapshot.
// A failed save drops the snapshot so the next Load rereads the backend.
func (c *Cached) Save(ctx context.Context, col core.Collection) error {
	err := c.next.Save(ctx, col)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err != nil {
		c.cache.Delete(snapshotKey)
		return err
	}
	c.cache.Set(snapshotKey, col.Clone())
	return nil
}

// Invalidate forgets the snapshot.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Delete(snapshotKey)
}

func (c *Cached) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Cache exposes the snapshot cache so it can be registered with a cache.Manager.
func (c *Cached) Cache() *cache.LRUCache[core.Collection] {
	return c.cache
}

// Close closes the wrapped store when it holds resources.
func (c *Cached) Close() error {
	return Close(c.next)
}
