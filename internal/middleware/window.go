package middleware

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

const memoryShards = 32

type windowShard struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// MemoryStore is a process-local WindowStore. Keys are spread over
// independently locked shards.
type MemoryStore struct {
	shards [memoryShards]*windowShard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &windowShard{hits: make(map[string][]time.Time)}
	}
	return s
}

func (s *MemoryStore) shard(key string) *windowShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}

func (s *MemoryStore) Allow(_ context.Context, key string, now time.Time, window time.Duration, max int) (bool, int, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	hits := evict(sh.hits[key], now.Add(-window))
	if len(hits) >= max {
		sh.hits[key] = hits
		return false, len(hits), nil
	}
	hits = append(hits, now)
	sh.hits[key] = hits
	return true, len(hits), nil
}

// evict keeps the hits after cutoff. Hits are appended in time order.
func evict(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// Reset forgets every key.
func (s *MemoryStore) Reset() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.hits = make(map[string][]time.Time)
		sh.mu.Unlock()
	}
}

// Sweep drops keys with no hits inside the window and returns how many
// were removed.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, hits := range sh.hits {
			if len(evict(hits, cutoff)) == 0 {
				delete(sh.hits, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.hits)
		sh.mu.Unlock()
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now, window); n > 0 {
				slog.Debug("swept rate limit keys", "removed", n)
			}
		}
	}
}
