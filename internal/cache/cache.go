// Package cache holds process-local read caches keyed by user and role.
// Entries never expire; writers invalidate them explicitly.
package cache

import (
	"sync"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
)

// RoleCache maps <user>|<role> to the last value read for that key.
// A nil *RoleCache is a valid, always-missing cache.
//
// Every Invalidate and Clear advances the epoch. Readers that fill the cache
// from a slower source take Epoch before the read and fill with SetIfCurrent,
// so a value read before a concurrent write is never stored.
type RoleCache[V any] struct {
	name    string
	mu      sync.RWMutex
	entries map[string]V
	epoch   uint64
}

func NewRoleCache[V any](name string) *RoleCache[V] {
	return &RoleCache[V]{name: name, entries: make(map[string]V)}
}

func Key(userID string, role models.Role) string {
	return userID + "|" + string(models.NormalizeRole(string(role)))
}

func (c *RoleCache[V]) Get(userID string, role models.Role) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	v, ok := c.entries[Key(userID, role)]
	c.mu.RUnlock()
	if ok {
		observability.CacheLookups.WithLabelValues(c.name, "hit").Inc()
	} else {
		observability.CacheLookups.WithLabelValues(c.name, "miss").Inc()
	}
	return v, ok
}

func (c *RoleCache[V]) Set(userID string, role models.Role, v V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[Key(userID, role)] = v
	c.mu.Unlock()
}

// Epoch returns the current invalidation epoch.
func (c *RoleCache[V]) Epoch() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// SetIfCurrent stores v only when no invalidation happened since epoch was taken.
func (c *RoleCache[V]) SetIfCurrent(userID string, role models.Role, v V, epoch uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.entries[Key(userID, role)] = v
	return true
}

func (c *RoleCache[V]) Invalidate(userID string, role models.Role) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, Key(userID, role))
	c.epoch++
	c.mu.Unlock()
}

// Clear drops every entry. Used after writes that touch keys the caller cannot name.
func (c *RoleCache[V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]V)
	c.epoch++
	c.mu.Unlock()
}

func (c *RoleCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
