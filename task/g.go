package task

import (
	"github.com/coldboot/micrort/panicrec"
)

// Status is a task's scheduling state.
type Status int

const (
	StatusIdle Status = iota
	StatusRunnable
	StatusRunning
	StatusWaiting
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunnable:
		return "runnable"
	case StatusRunning:
		return "running"
	case StatusWaiting:
		return "waiting"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// WaitReason enumerates why a task is parked.
type WaitReason int

const (
	WaitNone WaitReason = iota
	WaitChanSend
	WaitChanRecv
	WaitSelect
	WaitSleep
	WaitIO
	WaitGC
)

func (r WaitReason) String() string {
	switch r {
	case WaitNone:
		return ""
	case WaitChanSend:
		return "chan send"
	case WaitChanRecv:
		return "chan receive"
	case WaitSelect:
		return "select"
	case WaitSleep:
		return "sleep"
	case WaitIO:
		return "io"
	case WaitGC:
		return "gc"
	default:
		return "unknown"
	}
}

// Sudog is one wait-queue node, one per blocked channel/select
// operation. Real sudogs are pooled on the target to
// avoid allocation while blocking; here they come from the heap like
// any other GC-tracked value, since the host's own allocator already
// satisfies the no-fragmentation goal sudog pooling exists for.
type Sudog struct {
	G        *G
	Elem     interface{} // caller's value slot: source for send, destination for recv
	C        interface{} // the channel this sudog is queued on (rtchan.Chan, opaque here to avoid an import cycle)
	Next     *Sudog
	Prev     *Sudog
	Waitlink *Sudog // select: chain of every sudog this task is enqueued on
	Ticket   int    // select: case index
	IsSelect bool
	Success  bool
	Closed   bool // set instead of Success when woken by a channel close, so a select can still tell this sudog apart from one that simply never fired
}

// G is a task descriptor. The compiler-ABI fixed offsets a real port
// cares about (panic-chain head at offset 0, defer-chain head at
// offset 4) are a non-goal here: there is no compiler emitting direct
// offset loads against this struct, so *Task embeds the panic/defer
// chain the ordinary Go way while preserving everything the field
// does.
type G struct {
	*panicrec.Task

	ID     int64
	Status Status

	Schedlink *G // intrusive FIFO run-queue link

	Stack      *Stack
	StackGuard uintptr // low-address guard boundary (the stack arena's base address)

	WaitReason WaitReason
	PendingSudog *Sudog

	// SelectDone guards a single select operation's race across the
	// several sudogs it has enqueued on different channels: the first
	// channel operation to complete one of them claims it via
	// ClaimSelect, and every other enqueued sudog must be treated as
	// already lost even if some other task's send/recv reaches it
	// first. Reset to false each time this G starts a new select.
	SelectDone bool

	DeathGen int64 // globalGen at time of death; reclaimed only after +2 generations

	EntryFn  func(arg interface{})
	EntryArg interface{}

	// resumeCh/parkCh implement the single-active-task baton handoff
	// (DESIGN.md): exactly one goroutine among all live G's may be
	// past its <-resumeCh receive at any time. Swapping context becomes
	// "tell this G's goroutine to proceed" and "wait for it to hand the
	// baton back".
	resumeCh chan struct{}
	parkCh   chan struct{}

	runningGoroutine bool
	exited           bool
}

// NewG allocates a task descriptor bound to a freshly obtained stack
// segment. It does not start the task's goroutine; Scheduler.Spawn
// does that once the task is enqueued runnable.
func NewG(id int64, pool *StackPool, stackSize int, entry func(arg interface{}), arg interface{}) (*G, error) {
	st, err := pool.Get(stackSize)
	if err != nil {
		return nil, err
	}
	g := &G{
		Task:       &panicrec.Task{},
		ID:         id,
		Status:     StatusIdle,
		Stack:      st,
		StackGuard: st.arena.BaseAddr(),
		EntryFn:    entry,
		EntryArg:   arg,
		resumeCh:   make(chan struct{}),
		parkCh:     make(chan struct{}),
	}
	return g, nil
}

// Start launches the task's goroutine. It blocks on the baton's
// resumeCh before running a single instruction of g's entry function,
// so creating the goroutine does not by itself let the task run ahead
// of the scheduler — at most one task is ever in the running status
// at any instant.
func (g *G) Start(onExit func(g *G)) {
	if g.runningGoroutine {
		return
	}
	g.runningGoroutine = true
	go func() {
		<-g.resumeCh
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicrec.FatalReporter("panic: unrecovered task panic", r)
				}
			}()
			g.Checkpoint(func() {
				g.EntryFn(g.EntryArg)
			})
		}()
		g.exited = true
		g.Status = StatusDead
		onExit(g)
		g.parkCh <- struct{}{}
	}()
}

// Resume hands the baton to g and blocks until g parks or exits,
// implementing the scheduler dispatch loop's "swap-context in". g must
// be runnable.
func (g *G) Resume() {
	g.Status = StatusRunning
	g.resumeCh <- struct{}{}
	<-g.parkCh
}

// ClaimSelect reports whether the calling channel operation is the
// first to complete one of this G's currently-enqueued select sudogs.
// The first caller sees false->true and wins; any later caller for a
// different sudog of the same select sees SelectDone already true and
// loses, so it must not deliver its value or mark itself successful.
func (g *G) ClaimSelect() bool {
	if g.SelectDone {
		return false
	}
	g.SelectDone = true
	return true
}

// ParkSelf is called from inside the running task's own goroutine (by
// gopark) to hand the baton back to the scheduler and block until the
// scheduler resumes this task again via Resume.
func (g *G) ParkSelf() {
	g.parkCh <- struct{}{}
	<-g.resumeCh
}
