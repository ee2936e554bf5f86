package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	mu     sync.Mutex
	stamps []time.Time
	dead   bool
}

// prune drops timestamps at or before windowStart. Caller holds b.mu.
func (b *bucket) prune(windowStart time.Time) {
	i := 0
	for i < len(b.stamps) && !b.stamps[i].After(windowStart) {
		i++
	}
	if i > 0 {
		b.stamps = append(b.stamps[:0], b.stamps[i:]...)
	}
}

// MemoryLedger keeps per-client timestamps in process memory. Each client
// has its own lock so unrelated clients never contend.
type MemoryLedger struct {
	buckets sync.Map
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) Admit(_ context.Context, key string, now time.Time, window time.Duration, max int) (bool, error) {
	windowStart := now.Add(-window)

	for {
		v, _ := m.buckets.LoadOrStore(key, &bucket{})
		b := v.(*bucket)

		b.mu.Lock()
		if b.dead {
			// evicted by Sweep after we loaded it
			b.mu.Unlock()
			continue
		}

		b.prune(windowStart)
		if len(b.stamps) >= max {
			b.mu.Unlock()
			return false, nil
		}
		b.stamps = append(b.stamps, now)
		b.mu.Unlock()
		return true, nil
	}
}

// Sweep removes clients with no timestamps inside the window and returns how
// many were evicted
func (m *MemoryLedger) Sweep(now time.Time, window time.Duration) int {
	windowStart := now.Add(-window)
	evicted := 0

	m.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)

		b.mu.Lock()
		b.prune(windowStart)
		if len(b.stamps) == 0 {
			b.dead = true
			m.buckets.Delete(key)
			evicted++
		}
		b.mu.Unlock()
		return true
	})

	return evicted
}

// Len returns the number of tracked clients
func (m *MemoryLedger) Len() int {
	n := 0
	m.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
