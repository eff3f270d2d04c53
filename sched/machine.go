package sched

import (
	"golang.org/x/sync/errgroup"

	"github.com/coldboot/micrort/host"
)

func nowPlus(ns int64) int64 { return host.NanoTime() + ns }

// Machine is the host-facing wrapper around a Scheduler: it adds the
// supplemented periodic-callback-timer API (`original_source/timer.c`'s
// non-task-bound timer kind — see DESIGN.md) and a Drain method a host
// program calls to run the dispatch loop to completion from its own
// goroutine, propagating the first error the way errgroup.Group.Wait
// does for a set of concurrent workers.
//
// Everything Machine adds is a thin convenience over Scheduler; the
// dispatch loop itself, and the "exactly one goroutine drives it"
// invariant, live entirely in Scheduler.Run.
type Machine struct {
	*Scheduler

	group *errgroup.Group
}

// NewMachine wraps an existing scheduler. Most callers construct one
// Scheduler via sched.New and hand it here once, at program setup.
func NewMachine(s *Scheduler) *Machine {
	return &Machine{Scheduler: s}
}

// Run starts the dispatch loop on a new goroutine and returns
// immediately; call Drain to block for its result. Calling Run twice
// on the same Machine is a programmer error and panics, the same
// contract errgroup.Group.Go documents for reuse after Wait.
func (m *Machine) Run() {
	if m.group != nil {
		panic("sched: Machine.Run called twice")
	}
	m.group = &errgroup.Group{}
	m.group.Go(m.Scheduler.Run)
}

// Drain blocks until the dispatch loop started by Run has no live
// user tasks left (or has hit an internal invariant violation) and
// returns its error, mirroring errgroup.Group.Wait.
func (m *Machine) Drain() error {
	if m.group == nil {
		return nil
	}
	return m.group.Wait()
}

// cancelToken is shared between a scheduled timer and the handle
// returned to the caller so Stop can suppress a callback that has
// already been queued to fire.
type cancelToken struct{ stopped bool }

// AfterFuncHandle lets a caller cancel a pending AfterFunc callback.
type AfterFuncHandle struct{ tok *cancelToken }

// Stop prevents fn from running if it has not fired yet. It has no
// effect once fn has already started running.
func (h AfterFuncHandle) Stop() { h.tok.stopped = true }

// AfterFunc schedules fn to run once after duration ns have elapsed,
// checked from inside the scheduler's own dispatch loop (never
// concurrently with a running task, same as every other Machine/
// Scheduler method).
func (m *Machine) AfterFunc(ns int64, fn func()) AfterFuncHandle {
	tok := &cancelToken{}
	m.timers.push(&timer{
		deadline: nowPlus(ns),
		callback: func() {
			if !tok.stopped {
				fn()
			}
		},
	})
	return AfterFuncHandle{tok: tok}
}

// Ticker schedules fn to run every period ns until Stop is called. A
// stopped ticker's underlying timer entry simply stops re-arming
// itself on its next scheduled fire, rather than being spliced out of
// the heap immediately.
func (m *Machine) Ticker(periodNS int64, fn func()) AfterFuncHandle {
	tok := &cancelToken{}
	t := &timer{deadline: nowPlus(periodNS), period: periodNS}
	t.callback = func() {
		if tok.stopped {
			t.period = 0 // drainExpiredTimers won't re-arm a timer with period<=0
			return
		}
		fn()
	}
	m.timers.push(t)
	return AfterFuncHandle{tok: tok}
}
