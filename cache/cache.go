// Package cache is a keyed read-through cache with per-category TTLs,
// plus a topic publisher used to fan out book/trade/order
// updates, grounded on the teacher's websocket hub broadcast pattern.
package cache

import (
	"encoding/base64"
	"sync"
	"time"
)

// Category selects a key's TTL and metrics bucket.
type Category string

const (
	CategoryMarket    Category = "market"
	CategoryOrderbook Category = "orderbook"
	CategoryTrades    Category = "trades"
	CategoryBalances  Category = "balances"
)

// DefaultTTLs are the per-category defaults from the read-surface spec.
var DefaultTTLs = map[Category]time.Duration{
	CategoryMarket:    60 * time.Second,
	CategoryOrderbook: 1 * time.Second,
	CategoryTrades:    10 * time.Second,
	CategoryBalances:  5 * time.Second,
}

// Key builds a "{prefix}:{base64(id)}" cache key for a category and a
// fixed-size identifier (pubkey or similar).
func Key(category Category, id [32]byte) string {
	return string(category) + ":" + base64.RawURLEncoding.EncodeToString(id[:])
}

type entry struct {
	value   interface{}
	expires time.Time
}

// Cache is a thread-safe, TTL-expiring key/value store. enabled and
// available are independently toggleable: enabled is the operator's
// on/off switch, available tracks the cache's own health (e.g. backing
// store trouble). Either one being false makes Get always miss and
// Set/Delete no-op, without recording hits/misses.
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]entry
	ttls        map[Category]time.Duration
	enabled     bool
	available   bool
	hits        uint64
	misses      uint64
	gets        uint64
	sets        uint64
	deletes     uint64
	publishes   uint64
}

// New constructs a cache using the given per-category TTLs, falling
// back to DefaultTTLs for any category not supplied. Starts enabled and
// available.
func New(ttls map[Category]time.Duration) *Cache {
	merged := make(map[Category]time.Duration, len(DefaultTTLs))
	for k, v := range DefaultTTLs {
		merged[k] = v
	}
	for k, v := range ttls {
		merged[k] = v
	}
	return &Cache{
		entries:   make(map[string]entry),
		ttls:      merged,
		enabled:   true,
		available: true,
	}
}

// SetEnabled toggles the operator on/off switch; independent of the
// availability flag.
func (c *Cache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Enabled reports the current enabled flag.
func (c *Cache) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetAvailable toggles availability; independent of the enabled flag.
func (c *Cache) SetAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = available
}

// Available reports the current availability flag.
func (c *Cache) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Get returns the value stored at key, or (nil, false) on miss,
// expiry, or while disabled or unavailable.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || !c.available {
		return nil, false
	}
	c.gets++
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value at key with the given category's TTL; no-op while
// disabled or unavailable.
func (c *Cache) Set(category Category, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || !c.available {
		return
	}
	c.sets++
	ttl := c.ttls[category]
	c.entries[key] = entry{value: value, expires: time.Now().Add(ttl)}
}

// SetTTL stores value at key with an explicit TTL, bypassing the
// category default; no-op while disabled or unavailable.
func (c *Cache) SetTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || !c.available {
		return
	}
	c.sets++
	c.entries[key] = entry{value: value, expires: time.Now().Add(ttl)}
}

// Delete removes key; no-op while disabled or unavailable.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || !c.available {
		return
	}
	c.deletes++
	delete(c.entries, key)
}

// Stats is a point-in-time snapshot of the cache's counters.
type Stats struct {
	Hits, Misses, Gets, Sets, Deletes, Publishes uint64
	HitRate                                      float64
}

// StatsSnapshot returns the current counters; HitRate is hits/gets, 0
// when there have been no gets.
func (c *Cache) StatsSnapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Hits: c.hits, Misses: c.misses, Gets: c.gets, Sets: c.sets, Deletes: c.deletes, Publishes: c.publishes}
	if s.Gets > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Gets)
	}
	return s
}

// ResetStats zeros all counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.gets, c.sets, c.deletes, c.publishes = 0, 0, 0, 0, 0, 0
}

func (c *Cache) recordPublish() {
	c.mu.Lock()
	c.publishes++
	c.mu.Unlock()
}
