// micrortdemo runs the end-to-end scenarios of spec.md §8 against the
// real engine packages — not as a test, but as a small host program
// that exercises scheduling, channels, the heap, and panic/recover
// together as a runnable demonstration rather than another _test.go
// file.
package main

import (
	"flag"
	"fmt"
	"unsafe"

	"github.com/coldboot/micrort/heap"
	"github.com/coldboot/micrort/hmap"
	"github.com/coldboot/micrort/internal/rtlog"
	"github.com/coldboot/micrort/panicrec"
	"github.com/coldboot/micrort/rtchan"
	"github.com/coldboot/micrort/rttype"
	"github.com/coldboot/micrort/sched"
	"github.com/coldboot/micrort/task"
)

func main() {
	debug := flag.Bool("debug", false, "print debug tracing from each scenario")
	flag.Parse()

	log := rtlog.New(nil, *debug)

	runUnbufferedRendezvous(log)
	runBufferedCloseDrain(log)
	runGCPreservesReachable(log)
	runMapGrowStability(log)
	runPanicRecoverRoundTrip(log)
}

// demoNode is a tiny two-field linked-list node used only to give
// runGCPreservesReachable something with an outgoing pointer to chase,
// mirroring heap_test.go's own node type.
type demoNode struct {
	val  uint32
	_    uint32
	next *demoNode
}

var demoNodeType = &rttype.Type{
	Size:    unsafe.Sizeof(demoNode{}),
	PtrData: unsafe.Sizeof(demoNode{}),
	Kind:    rttype.KindStruct,
	Align:   8,
	GCData:  []byte{0x02}, // word 1 (`next`) is a pointer
}

// runGCPreservesReachable is spec.md §8 scenario 4: a single rooted
// node survives a collection with its value intact, and a 1000-node
// chain reachable only through its head survives just the same.
func runGCPreservesReachable(log *rtlog.Logger) {
	h, err := heap.New(nil)
	if err != nil {
		log.Fatalf("GC preserves reachable: heap.New: %v", err)
	}
	defer h.Close()

	p := h.Alloc(demoNodeType, demoNodeType.Size)
	n := (*demoNode)(p)
	n.val = 0xDEADBEEF
	root := p
	h.AddRoot(&root)
	h.Collect()
	n = (*demoNode)(root)
	log.Printf("GC preserves reachable: single root val=%#x (want 0xdeadbeef)", n.val)

	const chainLen = 1000
	var head unsafe.Pointer
	prev := &head
	for i := 0; i < chainLen; i++ {
		p := h.Alloc(demoNodeType, demoNodeType.Size)
		nd := (*demoNode)(p)
		nd.val = uint32(i)
		*prev = p
		prev = (*unsafe.Pointer)(unsafe.Pointer(&nd.next))
	}
	h.AddRoot(&head)
	h.Collect()

	cur := head
	count := 0
	for cur != nil {
		nd := (*demoNode)(cur)
		if nd.val != uint32(count) {
			log.Fatalf("GC preserves reachable: chain node %d corrupted: val=%d", count, nd.val)
		}
		cur = unsafe.Pointer(nd.next)
		count++
	}
	log.Printf("GC preserves reachable: chain of %d nodes walked intact after collection", count)
}

// runUnbufferedRendezvous is spec.md §8 scenario 1: a send blocks
// until a receiver is ready; the received value matches exactly.
func runUnbufferedRendezvous(log *rtlog.Logger) {
	s := sched.New(nil, nil)
	c := rtchan.Make(s, 0)

	var received interface{}
	var ok bool
	spawn(s, func(self *task.G) { c.Send(self, 42) })
	spawn(s, func(self *task.G) { received, ok = c.Recv(self) })

	if err := s.Run(); err != nil {
		log.Fatalf("unbuffered rendezvous: %v", err)
	}
	log.Printf("unbuffered rendezvous: received=%v ok=%v len=%d", received, ok, c.Len())
}

// runBufferedCloseDrain is spec.md §8 scenario 2: send 1, send 2,
// close, then receive three times.
func runBufferedCloseDrain(log *rtlog.Logger) {
	s := sched.New(nil, nil)
	c := rtchan.Make(s, 2)

	type result struct {
		v  interface{}
		ok bool
	}
	var results []result
	spawn(s, func(self *task.G) {
		c.Send(self, 1)
		c.Send(self, 2)
		c.Close()
	})
	spawn(s, func(self *task.G) {
		for i := 0; i < 3; i++ {
			v, ok := c.Recv(self)
			results = append(results, result{v, ok})
		}
	})

	if err := s.Run(); err != nil {
		log.Fatalf("buffered close drain: %v", err)
	}
	for _, r := range results {
		log.Printf("buffered close drain: (%v, %v)", r.v, r.ok)
	}
}

// runMapGrowStability is spec.md §8 scenario 5, shrunk for a demo
// binary's runtime budget: insert distinct uint32 keys and confirm
// every prior key survives each grow.
func runMapGrowStability(log *rtlog.Logger) {
	const n = 5000
	const checkEvery = 1000

	m := hmap.New(rttype.Uint32, rttype.Uint32)
	for i := uint32(0); i < n; i++ {
		m.Put(i, i*2)
		if (i+1)%checkEvery != 0 {
			continue
		}
		for k := uint32(0); k <= i; k++ {
			if v, ok := m.Get(k); !ok || v.(uint32) != k*2 {
				log.Fatalf("map grow stability: key %d corrupted after %d inserts", k, i+1)
			}
		}
		log.Printf("map grow stability: %d keys verified after %d inserts", i+1, i+1)
	}
}

// runPanicRecoverRoundTrip is spec.md §8 scenario 6: a checkpoint, a
// defer that recovers, and a panic, with the checkpoint reporting the
// second ("recovered") trip and the recovered value round-tripping
// intact.
func runPanicRecoverRoundTrip(log *rtlog.Logger) {
	t := &panicrec.Task{}
	var recoveredValue interface{}
	var secondTripSawRecover bool

	completed := t.Checkpoint(func() {
		t.Defer(func() {
			if v, ok := t.Recover(); ok {
				recoveredValue = v
			}
		})
		t.Gopanic("oops")
	})
	secondTripSawRecover = !completed

	log.Printf("panic/recover round trip: recovered=%q secondTrip=%v", recoveredValue, secondTripSawRecover)
}

// selfArg and spawn let a task body reach its own *task.G, the same
// pattern rtchan's tests use (there is no implicit "current task"
// global in this host — every blocking call takes the caller's G
// explicitly, per spec.md's ABI).
type selfArg struct {
	g    *task.G
	cont func(self *task.G)
}

func spawn(s *sched.Scheduler, body func(self *task.G)) *task.G {
	g, err := s.Spawn(func(arg interface{}) {
		a := arg.(*selfArg)
		a.cont(a.g)
	}, &selfArg{cont: body}, 0)
	if err != nil {
		panic(fmt.Sprintf("micrortdemo: Spawn: %v", err))
	}
	g.EntryArg.(*selfArg).g = g
	return g
}
