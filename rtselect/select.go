// Package rtselect implements select: a randomized poll order,
// address-ordered lock acquisition, a two-pass ready-then-park
// algorithm, and rendezvous on wake. The lock-ordering step sorts the
// participating channels by their in-memory address before acquiring
// any lock — the standard deadlock-avoidance idiom for acquiring a
// group of locks in a consistent order, applied here to a group of
// channels instead of a group of inodes.
package rtselect

import (
	"sort"
	"unsafe"

	"github.com/coldboot/micrort/host"
	"github.com/coldboot/micrort/rtchan"
	"github.com/coldboot/micrort/sched"
	"github.com/coldboot/micrort/task"
)

// Dir distinguishes a select case's direction.
type Dir int

const (
	DirRecv Dir = iota
	DirSend
)

// Case is one arm of a select statement: a channel, a direction, and
// (for a send) the value to send.
type Case struct {
	Ch   *rtchan.Chan
	Dir  Dir
	Send interface{} // value to send, for Dir == DirSend
}

// Result reports which case fired.
type Result struct {
	Index  int
	RecvOK bool
	Value  interface{}
}

// sortCases orders case indices by their channel's address, the same
// consistency property nodefs/inode.go's nodeLess establishes for
// Inodes: for any two channels A and B this always orders A before B
// or always after, so two selects racing over overlapping channel
// sets can never acquire their locks in opposite orders.
func sortCases(order []int, cases []Case) {
	sort.Slice(order, func(i, j int) bool {
		return chanLess(cases[order[i]].Ch, cases[order[j]].Ch)
	})
}

func chanLess(a, b *rtchan.Chan) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}

// lockOrder builds the distinct-channel lock order for cases,
// mirroring lockNodes' dedup-while-sorted walk: duplicate channels
// appearing in more than one case (e.g. one case sends and another
// receives on the same channel) are locked exactly once.
func lockOrder(cases []Case) []*rtchan.Chan {
	idx := make([]int, len(cases))
	for i := range idx {
		idx[i] = i
	}
	sortCases(idx, cases)

	var chans []*rtchan.Chan
	var prev *rtchan.Chan
	for _, i := range idx {
		c := cases[i].Ch
		if c != prev {
			chans = append(chans, c)
			prev = c
		}
	}
	return chans
}

// pollOrder returns a Fisher-Yates shuffle of [0, n), seeded from a
// microsecond timer XORed with the task id.
func pollOrder(n int, taskID int64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	seed := uint64(host.NanoTime()/1000) ^ uint64(taskID)
	if seed == 0 {
		seed = 1
	}
	rng := xorshift64{state: seed}
	for i := n - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

type xorshift64 struct{ state uint64 }

func (x *xorshift64) next() uint64 {
	x.state ^= x.state << 13
	x.state ^= x.state >> 7
	x.state ^= x.state << 17
	return x.state
}

// tryCase reports whether cases[i] can complete immediately without
// blocking, executing it in place if so.
func tryCase(cur *task.G, c Case) (fired bool, recvOK bool, value interface{}) {
	switch c.Dir {
	case DirSend:
		if c.Ch.TrySend(cur, c.Send) {
			return true, false, nil
		}
		return false, false, nil
	default:
		v, ok, selected := c.Ch.TryRecv()
		if selected {
			return true, ok, v
		}
		return false, false, nil
	}
}

// Select runs the select algorithm: a randomized ready-scan pass, then
// (for a blocking select with nothing ready) a park-and-rendezvous
// pass. Blocking selects park the calling task cur if no case is
// immediately ready; non-blocking selects (block=false) return
// Index=-1 in that situation instead.
func Select(s *sched.Scheduler, cur *task.G, cases []Case, block bool) Result {
	if len(cases) == 0 {
		// Empty select{} parks forever with reason Select.
		s.Gopark(cur, task.WaitSelect, func() bool { return true })
		return Result{Index: -1}
	}

	order := pollOrder(len(cases), cur.ID)

	for _, i := range order {
		if fired, recvOK, value := tryCase(cur, cases[i]); fired {
			return Result{Index: i, RecvOK: recvOK, Value: value}
		}
	}

	if !block {
		host.Yield()
		return Result{Index: -1}
	}

	return enqueueAndPark(s, cur, cases)
}

// enqueueAndPark is select's second pass: allocate a sudog per case,
// stash the case index as its ticket, link them together via
// Waitlink, enqueue on each channel's waitq in lock order, then park.
// On wake exactly one sudog carries Success=true; every other one is
// unlinked from its channel before this returns.
//
// Every channel here is locked one at a time (EnqueueSend etc. take
// and release a single channel's lock internally) because this
// runtime has no parallelism to race against — only one task ever
// executes at a time. Computing the address-ordered sequence is kept
// anyway: it documents the deadlock-avoidance intent and mirrors the
// real runtime's algorithm step for step.
func enqueueAndPark(s *sched.Scheduler, cur *task.G, cases []Case) Result {
	chans := lockOrder(cases)
	caseIndicesByChan := make(map[*rtchan.Chan][]int, len(chans))
	for i, c := range cases {
		caseIndicesByChan[c.Ch] = append(caseIndicesByChan[c.Ch], i)
	}

	cur.SelectDone = false
	sudogs := make([]*task.Sudog, len(cases))
	for _, ch := range chans {
		for _, i := range caseIndicesByChan[ch] {
			c := cases[i]
			var sg *task.Sudog
			if c.Dir == DirSend {
				val := c.Send
				sg = &task.Sudog{G: cur, Elem: &val, C: c.Ch, IsSelect: true, Ticket: i}
				c.Ch.EnqueueSend(sg)
			} else {
				var slot interface{}
				sg = &task.Sudog{G: cur, Elem: &slot, C: c.Ch, IsSelect: true, Ticket: i}
				c.Ch.EnqueueRecv(sg)
			}
			sudogs[i] = sg
		}
	}
	cur.PendingSudog = linkSudogs(sudogs)

	s.Gopark(cur, task.WaitSelect, func() bool { return true })

	result := Result{Index: -1}
	for _, sg := range sudogs {
		switch {
		case sg.Success:
			result.Index = sg.Ticket
			if cases[sg.Ticket].Dir == DirRecv {
				result.RecvOK = true
				result.Value = *sg.Elem.(*interface{})
			}
		case sg.Closed:
			// Woken by a close rather than a data transfer: a recv case
			// reports recvOK=false with its destination already zeroed.
			// A send case woken this way panics, same as a plain
			// blocking send on a closed channel.
			result.Index = sg.Ticket
			if cases[sg.Ticket].Dir == DirSend {
				cur.Gopanic("send on closed channel")
			}
		default:
			if cases[sg.Ticket].Dir == DirSend {
				cases[sg.Ticket].Ch.RemoveSend(sg)
			} else {
				cases[sg.Ticket].Ch.RemoveRecv(sg)
			}
		}
	}
	cur.PendingSudog = nil
	return result
}

func linkSudogs(sudogs []*task.Sudog) *task.Sudog {
	var head *task.Sudog
	for i := len(sudogs) - 1; i >= 0; i-- {
		sudogs[i].Waitlink = head
		head = sudogs[i]
	}
	return head
}
