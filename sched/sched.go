// Package sched implements the single-threaded cooperative scheduler:
// a FIFO run queue, park/ready suspension, a timer min-heap, and a
// dead-task graveyard with generation-based reclamation. Exactly one
// goroutine — the one running Scheduler.Run —
// drives every task's execution via task.G's resume/park baton, so
// the "at most one task status is running at any instant" invariant
// holds even though tasks are themselves backed by real goroutines.
package sched

import (
	"fmt"

	"github.com/coldboot/micrort/heap"
	"github.com/coldboot/micrort/host"
	"github.com/coldboot/micrort/task"
)

// Config holds the scheduler's tunable knobs.
type Config struct {
	StackPool         *task.StackPool
	DefaultStackSize  int
	DeadTaskGraceGens int64
	ReapBatch         int
}

func (c *Config) withDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	cp := *c
	if cp.StackPool == nil {
		cp.StackPool = task.NewStackPool(nil, task.DefaultPerClassCap)
	}
	if cp.DefaultStackSize <= 0 {
		cp.DefaultStackSize = 64<<10 - task.StackGuard // usable size of the 64 KB class
	}
	if cp.DeadTaskGraceGens <= 0 {
		cp.DeadTaskGraceGens = 2
	}
	if cp.ReapBatch <= 0 {
		cp.ReapBatch = 32
	}
	return &cp
}

// Scheduler is the program's single dispatch loop. It is not safe for
// use from more than one goroutine: only the goroutine that calls Run,
// and task goroutines synchronized through their baton channels, ever
// touch its state.
type Scheduler struct {
	cfg *Config

	nextID int64
	runq   []*task.G
	tasks  map[int64]*task.G // global task table, for GC root iteration

	timers *timerHeap

	graveyard  []*task.G
	globalGen  int64

	liveUserTasks int

	heap *heap.Heap
}

// New constructs a scheduler bound to h, whose SetTaskRootsFunc is
// wired here so the GC can conservatively scan every live task's
// stack as one of its root sources.
func New(h *heap.Heap, cfg *Config) *Scheduler {
	s := &Scheduler{
		cfg:    cfg.withDefaults(),
		tasks:  make(map[int64]*task.G),
		timers: newTimerHeap(),
		heap:   h,
	}
	if h != nil {
		h.SetTaskRootsFunc(s.scanTaskRoots)
	}
	return s
}

// scanTaskRoots reports every live task's stack bounds to the heap's
// conservative scanner. Since these tasks run as real Go goroutines
// with real Go stacks rather than on the pooled Stack segments they
// carry, there is nothing for the conservative scanner to walk there;
// the pooled segments exist to model the target's allocation/reuse
// bookkeeping faithfully (see DESIGN.md). Go's own garbage collector
// already scans each task goroutine's real stack.
func (s *Scheduler) scanTaskRoots() []heap.RootLocation { return nil }

// Spawn creates a new runnable task running fn(arg) and enqueues it,
// the runtime.newproc path. stackSize of 0 uses the scheduler's
// default.
func (s *Scheduler) Spawn(fn func(arg interface{}), arg interface{}, stackSize int) (*task.G, error) {
	if stackSize <= 0 {
		stackSize = s.cfg.DefaultStackSize
	}
	s.nextID++
	id := s.nextID
	g, err := task.NewG(id, s.cfg.StackPool, stackSize, fn, arg)
	if err != nil {
		return nil, fmt.Errorf("sched: spawn task %d: %w", id, err)
	}
	s.tasks[id] = g
	s.liveUserTasks++
	g.Start(s.onTaskExit)
	s.Goready(g)
	return g, nil
}

// Goready marks g runnable, clears its wait reason, and pushes it onto
// the run queue tail. Idempotent against a task that is dead,
// runnable, or already running.
func (s *Scheduler) Goready(g *task.G) {
	switch g.Status {
	case task.StatusDead, task.StatusRunnable, task.StatusRunning:
		return
	}
	g.Status = task.StatusRunnable
	g.WaitReason = task.WaitNone
	s.runq = append(s.runq, g)
}

// Gopark is gopark(unlockFn, reason): the calling task (identified by
// cur) transitions to waiting, invokes unlock as the atomic commit
// point, and — unless unlock reports the park should be aborted —
// hands the baton back to the scheduler and blocks until some other
// code path calls Goready on it.
//
// unlock returning false means the park is aborted: the caller already
// observed a reason to run again (e.g. a concurrent send filled the
// slot) between deciding to park and committing, so Gopark puts cur
// back on the run queue instead of parking it.
func (s *Scheduler) Gopark(cur *task.G, reason task.WaitReason, unlock func() bool) {
	cur.Status = task.StatusWaiting
	cur.WaitReason = reason
	if !unlock() {
		cur.Status = task.StatusRunnable
		cur.WaitReason = task.WaitNone
		s.runq = append(s.runq, cur)
		return
	}
	cur.ParkSelf()
}

func (s *Scheduler) onTaskExit(g *task.G) {
	g.DeathGen = s.globalGen
	s.graveyard = append(s.graveyard, g)
	s.liveUserTasks--
}

// popRunnable pops the head of the FIFO run queue, or nil if empty.
func (s *Scheduler) popRunnable() *task.G {
	if len(s.runq) == 0 {
		return nil
	}
	g := s.runq[0]
	s.runq = s.runq[1:]
	return g
}

// Run drives the dispatch loop until no live user tasks remain. It
// returns nil on normal program termination and a
// non-nil error only if an internal invariant is violated (the
// scheduler itself never "throws" here; fatal conditions go through
// panicrec.Throw from the task side).
func (s *Scheduler) Run() error {
	for {
		s.drainExpiredTimers()

		if g := s.popRunnable(); g != nil {
			g.Resume()
			s.globalGen++
			s.reapDeadTasks()
			continue
		}

		if s.liveUserTasks == 0 {
			return nil
		}

		nextNS, ok := s.timers.peekDeadline()
		if !ok {
			return fmt.Errorf("sched: deadlock: %d live tasks, empty run queue, no pending timers", s.liveUserTasks)
		}
		now := host.NanoTime()
		if nextNS > now && nextNS-now > 1_000_000 {
			host.SleepMs((nextNS - now) / 1_000_000)
		} else {
			host.Yield()
		}
	}
}

func (s *Scheduler) drainExpiredTimers() {
	now := host.NanoTime()
	for {
		t, ok := s.timers.popExpired(now)
		if !ok {
			return
		}
		if t.g != nil {
			s.Goready(t.g)
		}
		if t.callback != nil {
			t.callback()
			if t.period > 0 {
				t.deadline = now + t.period
				s.timers.push(t)
			}
		}
	}
}

// reapDeadTasks frees TLS, stack, and the G itself for graveyard
// entries whose death generation is at least DeadTaskGraceGens behind
// the current one — the grace-period reclamation that gives code
// holding stale pointers a chance to stop referencing them — bounded
// to ReapBatch entries per call.
func (s *Scheduler) reapDeadTasks() {
	reaped := 0
	remaining := s.graveyard[:0]
	for _, g := range s.graveyard {
		if reaped < s.cfg.ReapBatch && s.globalGen-g.DeathGen >= s.cfg.DeadTaskGraceGens {
			s.cfg.StackPool.Put(g.Stack)
			delete(s.tasks, g.ID)
			reaped++
			continue
		}
		remaining = append(remaining, g)
	}
	s.graveyard = remaining
}

// LiveUserTasks reports the number of non-dead user tasks, for tests
// and diagnostics.
func (s *Scheduler) LiveUserTasks() int { return s.liveUserTasks }

// TaskByID looks up a task in the global task table by its back-link.
func (s *Scheduler) TaskByID(id int64) (*task.G, bool) {
	g, ok := s.tasks[id]
	return g, ok
}
