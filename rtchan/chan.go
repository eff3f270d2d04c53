// Package rtchan implements typed channels: blocking/non-blocking send
// and receive, a ring buffer for buffered channels, FIFO wait queues,
// and close semantics. Values travel as interface{} rather than as raw
// bytes through an elemsize-tagged buffer — a compiled program's hchan
// is written for the case where every channel's element type is known
// at compile time and the buffer is laid out inline; this host has no
// such compiler, so the "inline ring buffer" becomes a slice of
// interface{}, and elemsize/elemtype survive only as the declared Go
// type for documentation and the same-type assertions a real
// program's compiler would have guaranteed statically.
package rtchan

import (
	"fmt"

	"github.com/coldboot/micrort/panicrec"
	"github.com/coldboot/micrort/sched"
	"github.com/coldboot/micrort/task"
)

// MaxCapacity bounds channel construction: a capacity above it (or
// below zero) is a fatal makechan error, not a panic.
const MaxCapacity = 65536

// Chan is the runtime's hchan.
type Chan struct {
	s *sched.Scheduler

	buf      []interface{}
	dataqsiz int
	qcount   int
	sendx    int
	recvx    int

	recvq waitq
	sendq waitq

	closed bool
	locked bool // debug-only re-entrancy check; see lock/unlock below
}

type waitq struct {
	first *task.Sudog
	last  *task.Sudog
}

func (q *waitq) enqueue(sg *task.Sudog) {
	sg.Next = nil
	sg.Prev = q.last
	if q.last != nil {
		q.last.Next = sg
	} else {
		q.first = sg
	}
	q.last = sg
}

func (q *waitq) dequeue() *task.Sudog {
	sg := q.first
	if sg == nil {
		return nil
	}
	q.first = sg.Next
	if q.first != nil {
		q.first.Prev = nil
	} else {
		q.last = nil
	}
	sg.Next, sg.Prev = nil, nil
	return sg
}

func (q *waitq) remove(sg *task.Sudog) {
	if sg.Prev != nil {
		sg.Prev.Next = sg.Next
	} else if q.first == sg {
		q.first = sg.Next
	}
	if sg.Next != nil {
		sg.Next.Prev = sg.Prev
	} else if q.last == sg {
		q.last = sg.Prev
	}
	sg.Next, sg.Prev = nil, nil
}

// dequeueWinner pops sudogs off q until it finds one eligible to
// complete: either a plain blocking operation, or a select sudog whose
// owning task successfully claims it via ClaimSelect. A select sudog
// that loses the claim (because a different one of the same select's
// sudogs already completed on another channel) is discarded rather
// than matched — using it anyway would both silently drop the value
// this operation is delivering and leave two sudogs from the same
// select reporting success.
func dequeueWinner(q *waitq) *task.Sudog {
	for {
		sg := q.dequeue()
		if sg == nil || !sg.IsSelect || sg.G.ClaimSelect() {
			return sg
		}
	}
}

func (q *waitq) drainAll() []*task.Sudog {
	var out []*task.Sudog
	for sg := q.dequeue(); sg != nil; sg = q.dequeue() {
		out = append(out, sg)
	}
	return out
}

// Make constructs a channel with the given buffer capacity (0 for
// unbuffered/rendezvous), bound to s so blocking operations can
// gopark/goready through the scheduler.
func Make(s *sched.Scheduler, capacity int) *Chan {
	if capacity < 0 || capacity > MaxCapacity {
		panicrec.Throw(fmt.Sprintf("makechan: size out of range: %d", capacity))
	}
	c := &Chan{s: s, dataqsiz: capacity}
	if capacity > 0 {
		c.buf = make([]interface{}, capacity)
	}
	return c
}

// Len and Cap read qcount/dataqsiz without locking: callers accept the
// race-tolerance, which is harmless here because the single dispatch
// goroutine is the only mutator and it never calls Len/Cap
// concurrently with itself.
func (c *Chan) Len() int { return c.qcount }
func (c *Chan) Cap() int { return c.dataqsiz }

// lock/unlock are no-ops beyond the debug re-entrancy check: with M:1
// scheduling this is a re-entrancy assert, not a real spinlock, since
// only the single cooperative thread ever touches channel state.
func (c *Chan) lock() {
	if c.locked {
		panicrec.Throw("rtchan: re-entrant channel lock")
	}
	c.locked = true
}

func (c *Chan) unlock() { c.locked = false }

// Send is the blocking send. cur is the calling task, used to park it
// if the channel isn't immediately ready.
func (c *Chan) Send(cur *task.G, value interface{}) {
	c.lock()
	if c.closed {
		c.unlock()
		cur.Gopanic("send on closed channel")
		return
	}

	if sg := dequeueWinner(&c.recvq); sg != nil {
		c.unlock()
		*sg.Elem.(*interface{}) = value
		sg.Success = true
		c.s.Goready(sg.G)
		return
	}

	if c.dataqsiz > 0 && c.qcount < c.dataqsiz {
		c.buf[c.sendx] = value
		c.sendx = (c.sendx + 1) % c.dataqsiz
		c.qcount++
		c.unlock()
		return
	}

	sg := &task.Sudog{G: cur, Elem: &value, C: c}
	cur.PendingSudog = sg
	c.sendq.enqueue(sg)
	c.s.Gopark(cur, task.WaitChanSend, func() bool {
		c.unlock()
		return true
	})
	cur.PendingSudog = nil
	if !sg.Success {
		cur.Gopanic("send on closed channel")
	}
}

// TrySend is the non-blocking send (selectnbsend). It returns false
// without blocking if the channel isn't immediately ready. cur is the
// calling task, used to raise the recoverable "send on closed channel"
// panic the same way the blocking Send does (spec.md §7 classifies
// send-on-closed as recoverable regardless of which path reaches it).
func (c *Chan) TrySend(cur *task.G, value interface{}) (ok bool) {
	c.lock()
	defer func() {
		if !ok {
			c.unlock()
		}
	}()
	if c.closed {
		c.unlock()
		cur.Gopanic("send on closed channel")
		return false
	}
	if sg := dequeueWinner(&c.recvq); sg != nil {
		c.unlock()
		*sg.Elem.(*interface{}) = value
		sg.Success = true
		c.s.Goready(sg.G)
		return true
	}
	if c.dataqsiz > 0 && c.qcount < c.dataqsiz {
		c.buf[c.sendx] = value
		c.sendx = (c.sendx + 1) % c.dataqsiz
		c.qcount++
		c.unlock()
		return true
	}
	return false
}

// Recv is the blocking receive, symmetric with Send including the
// buffered-plus-parked-sender FIFO-preserving handoff: take from the
// head of the buffer, then refill that slot from the waiting sender.
func (c *Chan) Recv(cur *task.G) (value interface{}, ok bool) {
	c.lock()

	if c.dataqsiz > 0 && c.qcount > 0 {
		value = c.buf[c.recvx]
		c.buf[c.recvx] = nil
		if sg := dequeueWinner(&c.sendq); sg != nil {
			c.buf[c.recvx] = *sg.Elem.(*interface{})
			sg.Success = true
			c.recvx = (c.recvx + 1) % c.dataqsiz
			c.sendx = c.recvx // the refilled slot is now the tail of a full ring
			c.unlock()
			c.s.Goready(sg.G)
			return value, true
		}
		c.recvx = (c.recvx + 1) % c.dataqsiz
		c.qcount--
		c.unlock()
		return value, true
	}

	if sg := dequeueWinner(&c.sendq); sg != nil {
		c.unlock()
		value = *sg.Elem.(*interface{})
		sg.Success = true
		c.s.Goready(sg.G)
		return value, true
	}

	if c.closed {
		c.unlock()
		return nil, false
	}

	var slot interface{}
	sg := &task.Sudog{G: cur, Elem: &slot, C: c}
	cur.PendingSudog = sg
	c.recvq.enqueue(sg)
	c.s.Gopark(cur, task.WaitChanRecv, func() bool {
		c.unlock()
		return true
	})
	cur.PendingSudog = nil
	return slot, sg.Success
}

// TryRecv is the non-blocking counterpart used by select's ready scan
// and selectnbrecv.
func (c *Chan) TryRecv() (value interface{}, ok, selected bool) {
	c.lock()
	defer c.unlock()

	if c.dataqsiz > 0 && c.qcount > 0 {
		value = c.buf[c.recvx]
		c.buf[c.recvx] = nil
		if sg := dequeueWinner(&c.sendq); sg != nil {
			c.buf[c.recvx] = *sg.Elem.(*interface{})
			sg.Success = true
			c.recvx = (c.recvx + 1) % c.dataqsiz
			c.sendx = c.recvx // the refilled slot is now the tail of a full ring
			c.s.Goready(sg.G)
			return value, true, true
		}
		c.recvx = (c.recvx + 1) % c.dataqsiz
		c.qcount--
		return value, true, true
	}
	if sg := dequeueWinner(&c.sendq); sg != nil {
		value = *sg.Elem.(*interface{})
		sg.Success = true
		c.s.Goready(sg.G)
		return value, true, true
	}
	if c.closed {
		return nil, false, true
	}
	return nil, false, false
}

// Close is fatal on double-close. It drains both wait queues (batched
// outside the lock, to avoid re-entering scheduler work while holding
// it), zeroing receivers' destinations and marking every parked party
// unsuccessful.
func (c *Chan) Close() {
	c.lock()
	if c.closed {
		c.unlock()
		panicrec.Throw("close of closed channel")
	}
	c.closed = true

	recvs := c.recvq.drainAll()
	sends := c.sendq.drainAll()
	c.unlock()

	for _, sg := range recvs {
		if sg.IsSelect && !sg.G.ClaimSelect() {
			continue // this select already completed a different case
		}
		*sg.Elem.(*interface{}) = nil
		sg.Success = false
		sg.Closed = true
		c.s.Goready(sg.G)
	}
	for _, sg := range sends {
		if sg.IsSelect && !sg.G.ClaimSelect() {
			continue
		}
		sg.Success = false
		sg.Closed = true
		c.s.Goready(sg.G)
	}
}

// IsClosed reports whether the channel has been closed. Used by
// select's ready scan.
func (c *Chan) IsClosed() bool { return c.closed }

// EnqueueSend and EnqueueRecv append a pre-built sudog to the
// channel's send/recv wait queue, used by package rtselect's enqueue
// pass to register one sudog per select case across several channels
// under their shared lock order.
func (c *Chan) EnqueueSend(sg *task.Sudog) {
	c.lock()
	c.sendq.enqueue(sg)
	c.unlock()
}

func (c *Chan) EnqueueRecv(sg *task.Sudog) {
	c.lock()
	c.recvq.enqueue(sg)
	c.unlock()
}

// RemoveSend and RemoveRecv unlink a sudog that lost the select race:
// every enqueued sudog other than the one that fired gets removed from
// its channel's waitq once the select wakes up.
func (c *Chan) RemoveSend(sg *task.Sudog) {
	c.lock()
	c.sendq.remove(sg)
	c.unlock()
}

func (c *Chan) RemoveRecv(sg *task.Sudog) {
	c.lock()
	c.recvq.remove(sg)
	c.unlock()
}
