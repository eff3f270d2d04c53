package sched

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestStressManySchedulersConcurrently runs many independent
// schedulers at once, each dispatching a batch of tasks that sleep
// briefly and then record that they finished, and checks every one
// converges to zero live user tasks with every task completed. The
// schedulers are independent (spec.md §4.3: "at most one task status
// is running at any instant" — a per-scheduler invariant, not a
// cross-scheduler one).
// golang.org/x/sync/errgroup fans the batch out and reports the first
// failure, per SPEC_FULL.md's Test tooling section.
func TestStressManySchedulersConcurrently(t *testing.T) {
	const schedulers = 32
	const tasksPerScheduler = 50

	var eg errgroup.Group
	for r := 0; r < schedulers; r++ {
		r := r
		eg.Go(func() error {
			s := New(nil, nil)

			var order []int
			for i := 0; i < tasksPerScheduler; i++ {
				i := i
				s.Spawn(func(arg interface{}) {
					self := arg.(*selfRef)
					s.TimeSleep(self.g, 1) // 1ns: expires on the next drainExpiredTimers
					order = append(order, i)
				}, &selfRef{}, 0)
			}
			for i := 0; i < tasksPerScheduler; i++ {
				g, ok := s.TaskByID(int64(i + 1))
				if !ok {
					return fmt.Errorf("run %d: TaskByID(%d) missing", r, i+1)
				}
				g.EntryArg.(*selfRef).g = g
			}

			if err := s.Run(); err != nil {
				return fmt.Errorf("run %d: Run: %w", r, err)
			}
			if got := s.LiveUserTasks(); got != 0 {
				return fmt.Errorf("run %d: LiveUserTasks = %d, want 0", r, got)
			}
			if len(order) != tasksPerScheduler {
				return fmt.Errorf("run %d: %d tasks completed, want %d", r, len(order), tasksPerScheduler)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}
