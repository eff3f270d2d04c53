package sched

import (
	"testing"

	"github.com/coldboot/micrort/task"
)

func TestSpawnRunsToCompletion(t *testing.T) {
	s := New(nil, nil)

	var ran bool
	_, err := s.Spawn(func(arg interface{}) {
		ran = true
	}, nil, 0)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Fatalf("task body never ran")
	}
	if got := s.LiveUserTasks(); got != 0 {
		t.Fatalf("LiveUserTasks = %d, want 0 after completion", got)
	}
}

func TestRunOrderIsFIFO(t *testing.T) {
	s := New(nil, nil)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		s.Spawn(func(arg interface{}) {
			order = append(order, i)
		}, nil, 0)
	}

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{0, 1, 2}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("run order = %v, want %v", order, want)
		}
	}
}

func TestTimeSleepParksAndResumes(t *testing.T) {
	s := New(nil, nil)

	var resumed bool
	s.Spawn(func(arg interface{}) {
		self := arg.(*selfRef)
		s.TimeSleep(self.g, 1) // 1ns: expires on the very next drainExpiredTimers
		resumed = true
	}, &selfRef{}, 0)

	g, _ := s.TaskByID(1)
	g.EntryArg.(*selfRef).g = g

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !resumed {
		t.Fatalf("task never resumed after its sleep timer expired")
	}
}

type selfRef struct {
	g *task.G
}
