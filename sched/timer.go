package sched

import (
	"github.com/coldboot/micrort/host"
	"github.com/coldboot/micrort/task"
)

// timer is one entry in the scheduler's timer min-heap (spec.md
// §4.3): either bound to a parked task (timeSleep) or a periodic
// callback (the supplemented "non-task-bound callback timers" of
// spec.md §4.3).
type timer struct {
	deadline int64 // absolute nanoseconds
	g        *task.G
	callback func()
	period   int64 // >0 for periodic callback timers; re-armed on fire
	index    int
}

// timerHeap is a binary min-heap keyed by absolute deadline, as
// spec.md §4.3 specifies ("binary min-heap, absolute deadlines").
// It is implemented by hand rather than via container/heap so the
// pop-if-expired operation (popExpired) can peek without allocating
// an interface conversion on every call.
type timerHeap struct {
	entries []*timer
}

func newTimerHeap() *timerHeap {
	return &timerHeap{}
}

func (h *timerHeap) push(t *timer) {
	t.index = len(h.entries)
	h.entries = append(h.entries, t)
	h.up(t.index)
}

func (h *timerHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.entries[parent].deadline <= h.entries[i].deadline {
			break
		}
		h.swap(parent, i)
		i = parent
	}
}

func (h *timerHeap) down(i int) {
	n := len(h.entries)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && h.entries[l].deadline < h.entries[smallest].deadline {
			smallest = l
		}
		if r < n && h.entries[r].deadline < h.entries[smallest].deadline {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *timerHeap) swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

func (h *timerHeap) popMin() *timer {
	n := len(h.entries)
	if n == 0 {
		return nil
	}
	top := h.entries[0]
	h.swap(0, n-1)
	h.entries = h.entries[:n-1]
	if len(h.entries) > 0 {
		h.down(0)
	}
	return top
}

// peekDeadline returns the earliest pending deadline, if any.
func (h *timerHeap) peekDeadline() (int64, bool) {
	if len(h.entries) == 0 {
		return 0, false
	}
	return h.entries[0].deadline, true
}

// popExpired pops and returns the earliest timer if its deadline has
// passed, else leaves the heap untouched.
func (h *timerHeap) popExpired(now int64) (*timer, bool) {
	if len(h.entries) == 0 || h.entries[0].deadline > now {
		return nil, false
	}
	return h.popMin(), true
}

// TimeSleep implements spec.md §4.3's timeSleep(ns): push a deadline
// timer for cur and park it, to be woken by goready from
// drainExpiredTimers once the deadline passes.
func (s *Scheduler) TimeSleep(cur *task.G, ns int64) {
	deadline := host.NanoTime() + ns
	s.timers.push(&timer{deadline: deadline, g: cur})
	s.Gopark(cur, task.WaitSleep, func() bool { return true })
}

// AddPeriodicTimer schedules fn to run every period nanoseconds,
// starting after the first period elapses, from inside the
// scheduler's own dispatch loop (never concurrently with a running
// task). Returns nothing to cancel by design in this minimal port;
// callers that need cancellation compose it with a closed-over flag.
func (s *Scheduler) AddPeriodicTimer(period int64, fn func()) {
	s.timers.push(&timer{deadline: host.NanoTime() + period, callback: fn, period: period})
}
