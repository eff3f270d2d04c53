package heap

import (
	"sync"
	"time"
)

// Stats accumulates GC pause and copy-path counters: a small
// mutex-guarded set of named counters queried far less often than it
// is updated, rather than a metrics-library histogram (spec.md's
// ambient stack carries a plain-counter style here, not a third-party
// metrics SDK — see DESIGN.md).
type Stats struct {
	mu sync.Mutex

	pauses        int
	totalPauseNs  int64
	longestPauseN int64

	largeAllocs     int
	largeAllocBytes int64

	storeQueueCopies int64
	memcpyCopies     int64
}

func newStats() *Stats { return &Stats{} }

func (s *Stats) recordPause(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
	ns := d.Nanoseconds()
	s.totalPauseNs += ns
	if ns > s.longestPauseN {
		s.longestPauseN = ns
	}
}

func (s *Stats) recordLargeAlloc(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.largeAllocs++
	s.largeAllocBytes += int64(n)
}

// Snapshot is a point-in-time, immutable copy of the counters, safe to
// print or diff with github.com/kylelemons/godebug/pretty in tests.
type Snapshot struct {
	Pauses           int
	TotalPauseNs     int64
	LongestPauseNs   int64
	LargeAllocs      int
	LargeAllocBytes  int64
	StoreQueueCopies int64
	MemcpyCopies     int64
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Pauses:           s.pauses,
		TotalPauseNs:     s.totalPauseNs,
		LongestPauseNs:   s.longestPauseN,
		LargeAllocs:      s.largeAllocs,
		LargeAllocBytes:  s.largeAllocBytes,
		StoreQueueCopies: s.storeQueueCopies,
		MemcpyCopies:     s.memcpyCopies,
	}
}

// Stats returns the heap's live statistics collector.
func (h *Heap) Stats() *Stats { return h.stats }
