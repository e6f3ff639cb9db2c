package exchange

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cachedTable struct {
	table     RateTable
	expiresAt time.Time
}

const maxCleanupInterval = 5 * time.Minute

// CachedService wraps a RateSource with in-memory TTL caching keyed by base
// currency. Concurrent misses for the same base share one upstream call.
type CachedService struct {
	inner RateSource
	ttl   time.Duration
	group singleflight.Group

	mu          sync.RWMutex
	tables      map[string]cachedTable
	lastCleanup time.Time
}

// NewCachedService returns a rate source that caches tables in memory.
func NewCachedService(inner RateSource, ttl time.Duration) *CachedService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CachedService{
		inner:  inner,
		ttl:    ttl,
		tables: make(map[string]cachedTable),
	}
}

// LatestRates returns the cached table for base, refreshing it when expired.
func (s *CachedService) LatestRates(ctx context.Context, base string) (RateTable, error) {
	key := normalizeCode(base)

	s.mu.RLock()
	entry, ok := s.tables[key]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.table, nil
	}

	// Detach cancellation so one short-deadline caller cannot fail the
	// other waiters on the same key.
	ch := s.group.DoChan(key, func() (any, error) {
		table, err := s.inner.LatestRates(context.WithoutCancel(ctx), key)
		if err != nil {
			return RateTable{}, err
		}
		s.store(key, table)
		return table, nil
	})

	select {
	case <-ctx.Done():
		return RateTable{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RateTable{}, res.Err
		}
		return res.Val.(RateTable), nil
	}
}

func (s *CachedService) store(key string, table RateTable) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[key] = cachedTable{table: table, expiresAt: now.Add(s.ttl)}

	interval := min(s.ttl, maxCleanupInterval)
	if !s.lastCleanup.IsZero() && now.Sub(s.lastCleanup) < interval {
		return
	}
	for k, entry := range s.tables {
		if !now.Before(entry.expiresAt) {
			delete(s.tables, k)
		}
	}
	s.lastCleanup = now
}
