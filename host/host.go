// Package host stands in for the kernel collaborator: IRQ disable/
// enable, a monotonic microsecond timer, RAM-window bounds, and
// malloc/free. On the Dreamcast this is KallistiOS; here it is a
// small shim over golang.org/x/sys/unix, because this repo hosts the
// runtime engine as a Go library rather than as freestanding firmware.
package host

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// NanoTime returns a monotonic nanosecond timestamp, the Go-host
// equivalent of the target's microsecond timer ("runtime.nanotime").
// CLOCK_MONOTONIC is what golang.org/x/sys/unix
// exposes; the target hardware only gives microsecond resolution, so
// callers that need to match the original grain should divide by 1000.
func NanoTime() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now().UnixNano()
	}
	return ts.Nano()
}

// WallTime returns wall-clock nanoseconds since the Unix epoch, the
// counterpart of "runtime.walltime" (nanotime plus a cached boot RTC
// reading on the real target; here just the host clock).
func WallTime() int64 {
	return time.Now().UnixNano()
}

// Yield gives the host scheduler a chance to run other OS threads,
// standing in for the single preemptive kernel thread that the
// cooperative scheduler's dispatch loop yields to between dispatches
// ("host.yield_to_kernel").
func Yield() {
	unix.Syscall(unix.SYS_SCHED_YIELD, 0, 0, 0)
}

// SleepMs blocks the calling goroutine for the given duration. The
// scheduler's dispatch loop calls this when every task is parked and
// the next timer is more than a millisecond away.
func SleepMs(ms int64) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// irqDepth tracks nested IRQ-disable regions. The real target disables
// CPU interrupts with a status-register write; this host has no such
// register, so nesting is modeled with a counter that panic- and
// allocation-path code consults to refuse complex work "in IRQ
// context".
var irqDepth int32

// DisableIRQ increments the IRQ-disable nesting depth and reports
// whether interrupts were previously enabled (mirrors the target's
// save-and-disable status-register idiom).
func DisableIRQ() (wasEnabled bool) {
	prev := atomic.AddInt32(&irqDepth, 1)
	return prev == 1
}

// EnableIRQ decrements the nesting depth.
func EnableIRQ() {
	atomic.AddInt32(&irqDepth, -1)
}

// InIRQContext reports whether code is currently running with
// interrupts disabled — used by the panic and scheduler paths to
// detect the "called from an IRQ handler" condition, which must fall
// straight through to a fatal report rather than run complex logic.
func InIRQContext() bool {
	return atomic.LoadInt32(&irqDepth) > 0
}

// RunInIRQ executes fn with interrupts considered disabled, the
// equivalent of the vblank handler context, the only place safe to run
// deferred cache-invalidation work.
func RunInIRQ(fn func()) {
	DisableIRQ()
	defer EnableIRQ()
	fn()
}
