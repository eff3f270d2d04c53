// Package panicrec implements defer/panic/recover on top of a
// checkpoint mechanism rather than DWARF stack unwinding. The target's
// checkpoint() is a setjmp-equivalent; this host has no setjmp, so a
// Checkpoint's recovery landing pad is built from a real Go
// defer/recover pair, and the "longjmp" is a real Go panic carrying a
// private sentinel that only that landing pad catches — see DESIGN.md
// for why this translation is faithful to the original contract even
// though the mechanics differ from the Dreamcast port.
package panicrec

import (
	"fmt"

	"github.com/coldboot/micrort/internal/rtlog"
)

const (
	// MaxDeferDepth bounds a task's defer chain.
	MaxDeferDepth = 1000
	// MaxRecursivePanics bounds nested un-recovered panics.
	MaxRecursivePanics = 5
)

// Record is one panic in flight.
type Record struct {
	Value     interface{}
	Recovered bool
	Aborted   bool
}

type deferEntry struct {
	fn    func()
	frame int
}

// Task holds one task's defer chain, panic chain, and checkpoint
// stack. Real tasks embed a Task; see package task.
type Task struct {
	Panics  []*Record
	Defers  []deferEntry
	InPanic bool

	checkpoints []int
}

// unwindSignal is the private Go panic value that implements "longjmp
// to the topmost checkpoint". It is never visible outside this
// package: Checkpoint's recover() intercepts it, and any other panic
// value is re-raised unchanged.
type unwindSignal struct {
	record *Record
}

// FatalReporter is called by Gopanic when a panic reaches the bottom
// of the defer chain without being recovered, and by Throw for fatal
// runtime errors. It defaults to a stderr report followed
// by os.Exit(2); tests replace it to observe the report without
// killing the test binary.
var FatalReporter func(header string, value interface{}) = defaultFatalReporter

// Checkpoint installs a recovery landing pad and runs body under it.
// It returns true if body ran to completion — normal return, with any
// defers it registered run in LIFO order — and false if a panic
// registered during body unwound all the way back here after being
// recovered (the "non-zero return on the second trip" side of the
// target's setjmp/longjmp).
func (t *Task) Checkpoint(body func()) (completed bool) {
	frame := len(t.Defers)
	t.checkpoints = append(t.checkpoints, frame)

	defer func() {
		t.checkpoints = t.checkpoints[:len(t.checkpoints)-1]
		if r := recover(); r != nil {
			if _, ok := r.(*unwindSignal); ok {
				completed = false
				return
			}
			panic(r)
		}
	}()

	body()
	t.runDefersFrom(frame)
	completed = true
	return
}

// Defer registers fn to run when the innermost checkpoint's body
// returns normally (deferreturn) or when a panic unwinds through it
// (gopanic), in LIFO order.
func (t *Task) Defer(fn func()) {
	if len(t.Defers) >= MaxDeferDepth {
		Throw("defer stack overflow")
	}
	t.Defers = append(t.Defers, deferEntry{fn: fn, frame: t.currentFrame()})
}

func (t *Task) currentFrame() int {
	if n := len(t.checkpoints); n > 0 {
		return t.checkpoints[n-1]
	}
	return 0
}

// runDefersFrom pops and runs every defer registered at or after
// frame, in LIFO order, clearing each entry's function before
// invocation so a panicking defer cannot re-run it.
func (t *Task) runDefersFrom(frame int) {
	for len(t.Defers) > frame {
		idx := len(t.Defers) - 1
		d := t.Defers[idx]
		t.Defers = t.Defers[:idx]
		fn := d.fn
		if fn != nil {
			fn()
		}
	}
}

// Gopanic is the recoverable-panic entry point. It walks the defer
// chain top-down; if a defer calls Recover, gopanic unwinds straight
// back to the topmost checkpoint. If no defer recovers, it reports
// fatally and exits.
func (t *Task) Gopanic(value interface{}) {
	if len(t.Panics) >= MaxRecursivePanics {
		Throw("panic chain too deep")
	}
	rec := &Record{Value: value}
	t.Panics = append(t.Panics, rec)
	t.InPanic = true

	frame := t.currentFrame()
	for len(t.Defers) > frame {
		idx := len(t.Defers) - 1
		d := t.Defers[idx]
		t.Defers = t.Defers[:idx]
		fn := d.fn
		if fn == nil {
			continue
		}
		fn()
		if rec.Recovered {
			t.unlinkPanic(rec)
			panic(&unwindSignal{record: rec})
		}
	}

	FatalReporter("panic: "+formatPanicValue(rec.Value), rec.Value)
}

func (t *Task) unlinkPanic(rec *Record) {
	for i := len(t.Panics) - 1; i >= 0; i-- {
		if t.Panics[i] == rec {
			t.Panics = append(t.Panics[:i], t.Panics[i+1:]...)
			break
		}
	}
	t.InPanic = len(t.Panics) > 0
}

// Recover returns the value of the current panic and marks it
// recovered, but only when called while InPanic is set and the
// topmost panic has not already been recovered — otherwise it is a
// no-op returning (nil, false). Recover alone does not transfer
// control; Gopanic performs the unwind once it observes Recovered
// after the deferred call returns.
func (t *Task) Recover() (interface{}, bool) {
	if !t.InPanic || len(t.Panics) == 0 {
		return nil, false
	}
	top := t.Panics[len(t.Panics)-1]
	if top.Recovered {
		return nil, false
	}
	top.Recovered = true
	return top.Value, true
}

func formatPanicValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case error:
		return x.Error()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	default:
		return fmt.Sprintf("(%T) %v", v, v)
	}
}

func defaultFatalReporter(header string, value interface{}) {
	// Mirrors original_source/go-panic.c's runtime_throw report shape
	// (header line, a fixed goroutine line in place of a stack dump,
	// exit) via rtlog, the same sink every
	// other component logs through. osExit stays a separate hook rather
	// than rtlog.Logger.Fatalf's own exit path, so tests that replace
	// osExit keep working unchanged.
	l := rtlog.Default(nil)
	l.Printf("fatal: %s", header)
	l.Printf("goroutine 1 [running]:")
	osExit(2)
}
