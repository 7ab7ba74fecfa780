// Package cache is a small stale-while-revalidate cache for expensive
// dashboard payloads. It is constructed and injected explicitly; there is no
// package-level instance, so tests and callers control its lifecycle and TTL.
// Cached values are never the source of truth — the database is.
package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coocood/freecache"
	json "github.com/goccy/go-json"
)

// entries are kept in freecache for hardTTLFactor times the freshness window,
// so a stale value is still servable while a refresh runs.
const hardTTLFactor = 10

type entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

type Cache struct {
	store *freecache.Cache
	ttl   time.Duration

	mu        sync.Mutex
	refreshes map[string]bool
}

// New creates a cache of sizeBytes with the given freshness window.
func New(sizeBytes int, ttl time.Duration) *Cache {
	return &Cache{
		store:     freecache.NewCache(sizeBytes),
		ttl:       ttl,
		refreshes: make(map[string]bool),
	}
}

// Set stores v under key.
func (c *Cache) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf, err := json.Marshal(entry{Value: raw, StoredAt: time.Now()})
	if err != nil {
		return err
	}
	return c.store.Set([]byte(key), buf, int(c.ttl.Seconds())*hardTTLFactor)
}

// Get decodes the cached value for key into dest. fresh reports whether the
// value is within the freshness window; ok reports whether anything was found.
func (c *Cache) Get(key string, dest any) (fresh bool, ok bool) {
	buf, err := c.store.Get([]byte(key))
	if err != nil {
		return false, false
	}
	var e entry
	if err := json.Unmarshal(buf, &e); err != nil {
		return false, false
	}
	if err := json.Unmarshal(e.Value, dest); err != nil {
		return false, false
	}
	return time.Since(e.StoredAt) <= c.ttl, true
}

// Invalidate drops the cached value for key.
func (c *Cache) Invalidate(key string) {
	c.store.Del([]byte(key))
}

// GetOrRefresh implements the stale-while-revalidate policy: a fresh value is
// returned as-is; a stale one is returned immediately while a single
// background refresh repopulates the key; a miss blocks on refresh.
func (c *Cache) GetOrRefresh(ctx context.Context, key string, dest any, refresh func(context.Context) (any, error)) error {
	fresh, ok := c.Get(key, dest)
	if ok && fresh {
		return nil
	}

	if ok {
		// Serve stale, refresh in the background. One in-flight refresh
		// per key; later callers keep getting the stale value.
		c.mu.Lock()
		inFlight := c.refreshes[key]
		if !inFlight {
			c.refreshes[key] = true
		}
		c.mu.Unlock()

		if !inFlight {
			go func() {
				defer func() {
					c.mu.Lock()
					delete(c.refreshes, key)
					c.mu.Unlock()
				}()
				bg, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				v, err := refresh(bg)
				if err != nil {
					log.Printf("cache: background refresh of %s failed: %v", key, err)
					return
				}
				if err := c.Set(key, v); err != nil {
					log.Printf("cache: failed to store refreshed %s: %v", key, err)
				}
			}()
		}
		return nil
	}

	v, err := refresh(ctx)
	if err != nil {
		return err
	}
	if err := c.Set(key, v); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
