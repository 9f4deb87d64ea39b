// Package cache keeps fetched recall-letter tables in memory, keyed by model
// year, for a fixed freshness window.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryan-buckman/recallfinder/internal/logger"
	"github.com/bryan-buckman/recallfinder/internal/metrics"
	"github.com/bryan-buckman/recallfinder/internal/model"
)

// DefaultTTL is how long a fetched year stays fresh.
const DefaultTTL = 30 * time.Minute

type entry struct {
	fetchedAt time.Time
	table     *model.Table
}

// YearCache is safe for concurrent use.
type YearCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int]entry
}

// Option customises a YearCache.
type Option func(*YearCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *YearCache) {
		c.now = now
	}
}

// New creates a cache. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) *YearCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &YearCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the table for year if it is younger than the TTL. A stale entry
// is removed and reported as a miss.
func (c *YearCache) Get(year int) (*model.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[year]
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if !c.freshLocked(e) {
		delete(c.entries, year)
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		metrics.CachedYears.Set(float64(len(c.entries)))
		logger.WithModule("cache").Info("cache expired", zap.Int("year", year))
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e.table, true
}

// Set stores table for year, replacing any previous entry.
func (c *YearCache) Set(year int, table *model.Table) {
	c.mu.Lock()
	c.entries[year] = entry{fetchedAt: c.now(), table: table}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.CachedYears.Set(float64(n))
	logger.WithModule("cache").Info("cached year", zap.Int("year", year), zap.Int("records", table.Len()))
}

// Prune removes every stale entry and returns how many were dropped.
func (c *YearCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for year, e := range c.entries {
		if !c.freshLocked(e) {
			delete(c.entries, year)
			removed++
		}
	}
	metrics.CachedYears.Set(float64(len(c.entries)))
	return removed
}

// Len returns the number of cached years, fresh or not.
func (c *YearCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *YearCache) freshLocked(e entry) bool {
	return c.now().Sub(e.fetchedAt) < c.ttl
}
