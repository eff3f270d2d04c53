package panicrec

import "testing"

func TestPanicRecoverRoundTrip(t *testing.T) {
	task := &Task{}

	var recoveredValue interface{}
	var secondRecoverOK bool
	var tripCount int

	completed := task.Checkpoint(func() {
		tripCount++
		task.Defer(func() {
			v, ok := task.Recover()
			if !ok {
				t.Fatalf("recover failed inside defer")
			}
			recoveredValue = v

			_, secondRecoverOK = task.Recover()
		})
		task.Gopanic("oops")
		t.Fatalf("unreachable: Gopanic must not return here")
	})

	if completed {
		t.Fatalf("Checkpoint reported completed=true, want false (recovered unwind)")
	}
	if recoveredValue != "oops" {
		t.Fatalf("recovered value = %v, want %q", recoveredValue, "oops")
	}
	if secondRecoverOK {
		t.Fatalf("second Recover at the same level should return ok=false")
	}
	if len(task.Panics) != 0 {
		t.Fatalf("panic chain not drained after recovery: %d entries", len(task.Panics))
	}
	if task.InPanic {
		t.Fatalf("InPanic still set after recovery")
	}
	if tripCount != 1 {
		t.Fatalf("body ran %d times, want 1 (Checkpoint wraps both the panic and recovered paths)", tripCount)
	}
}

func TestDeferRunsOnNormalReturn(t *testing.T) {
	task := &Task{}
	var ran []int

	completed := task.Checkpoint(func() {
		task.Defer(func() { ran = append(ran, 1) })
		task.Defer(func() { ran = append(ran, 2) })
	})

	if !completed {
		t.Fatalf("Checkpoint reported completed=false for a non-panicking body")
	}
	if len(ran) != 2 || ran[0] != 2 || ran[1] != 1 {
		t.Fatalf("defers did not run LIFO: %v", ran)
	}
}

func TestFatalWhenNoRecover(t *testing.T) {
	task := &Task{}
	var reportedHeader string
	var panicked bool

	old := FatalReporter
	FatalReporter = func(header string, value interface{}) {
		reportedHeader = header
		panicked = true
		panic("escape-fatal-reporter")
	}
	defer func() { FatalReporter = old }()

	func() {
		defer func() { recover() }()
		task.Checkpoint(func() {
			task.Gopanic("boom")
		})
	}()

	if !panicked {
		t.Fatalf("FatalReporter was not invoked")
	}
	if reportedHeader == "" {
		t.Fatalf("empty fatal header")
	}
}
