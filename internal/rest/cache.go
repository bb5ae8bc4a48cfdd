package rest

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// MonthKey identifies one cached schedule page.
type MonthKey struct {
	Team      string
	YearMonth string // YYYY-MM
}

func (k MonthKey) String() string {
	return k.Team + "/" + k.YearMonth
}

// CacheStats is a snapshot of MonthCache activity.
type CacheStats struct {
	Fetches  int64    `json:"fetches"`
	Hits     int64    `json:"hits"`
	Failures int64    `json:"failures"`
	Failed   []string `json:"failed_keys,omitempty"`
}

// MonthCache memoizes schedule pages per (team, month) for the lifetime of a
// run. There is no eviction. Concurrent misses on the same key share one
// fetch; a failed fetch is stored as an empty page so the key is not retried
// within the run.
type MonthCache struct {
	source domain.ScheduleSource

	mu     sync.RWMutex
	pages  map[MonthKey][]domain.ScheduleGame
	failed []string
	group  singleflight.Group

	gets     atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

// NewMonthCache creates an empty cache in front of source.
func NewMonthCache(source domain.ScheduleSource) *MonthCache {
	return &MonthCache{
		source: source,
		pages:  make(map[MonthKey][]domain.ScheduleGame),
	}
}

// Get returns the games for key, fetching on first use. The returned error
// is the fetch error, reported once; later calls for a failed key return an
// empty page and nil.
func (c *MonthCache) Get(ctx context.Context, key MonthKey) ([]domain.ScheduleGame, error) {
	c.gets.Add(1)
	c.mu.RLock()
	page, ok := c.pages[key]
	c.mu.RUnlock()
	if ok {
		return page, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		page, ok := c.pages[key]
		c.mu.RUnlock()
		if ok {
			return page, nil
		}

		c.fetches.Add(1)
		games, err := c.source.TeamMonth(ctx, key.Team, key.YearMonth)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.failures.Add(1)
			c.failed = append(c.failed, key.String())
			c.pages[key] = nil
			return nil, err
		}
		c.pages[key] = games
		return games, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ScheduleGame), nil
}

// Len returns the number of cached keys, failed ones included.
func (c *MonthCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// Stats returns a snapshot of the cache counters. Hits counts every Get that
// was answered without calling the source, shared in-flight fetches included.
func (c *MonthCache) Stats() CacheStats {
	c.mu.RLock()
	failed := append([]string(nil), c.failed...)
	c.mu.RUnlock()
	fetches := c.fetches.Load()
	return CacheStats{
		Fetches:  fetches,
		Hits:     c.gets.Load() - fetches,
		Failures: c.failures.Load(),
		Failed:   failed,
	}
}
