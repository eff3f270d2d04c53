// Package heap implements a copying semi-space garbage collector: bump
// allocation in an active semi-space, Cheney-style copying collection
// on trigger, precise bitmap-directed scanning where a type descriptor
// is known, conservative scanning of registered ranges otherwise, and
// a large-object escape hatch that bypasses the semi-spaces entirely.
package heap

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/coldboot/micrort/host"
	"github.com/coldboot/micrort/panicrec"
	"github.com/coldboot/micrort/rttype"
)

// Heap owns the two semi-spaces and the large-object tracking table.
// Every field is touched only from the single cooperative-scheduler
// thread except where noted; the mutex exists for the rare case of a
// background debug goroutine reading Stats concurrently — the core
// allocation and collection algorithms need no locking at all, but
// stats reads are off that hot path so they get one anyway, the same
// way fuse.LatencyMap does for its counters.
type Heap struct {
	cfg *Config

	spaces   [2]*host.Arena
	active   int
	cur      uintptr // bump pointer, absolute address
	limit    uintptr // absolute address, end of active space
	fromBase uintptr
	fromLen  uintptr

	inhibit int32 // GC-inhibit counter

	roots     []RootLocation
	rootLists []RootListEntry
	taskRoots TaskRootsFunc

	large map[uintptr]*largeObj

	mu    sync.Mutex
	stats *Stats

	invalidatePending bool
	invalidateOff     int
	invalidateSpace   int
}

type largeObj struct {
	arena *host.Arena
	size  int
	typ   *rttype.Type
}

// New allocates the two semi-spaces from the host and returns a ready
// Heap. cfg may be nil to use default tuning.
func New(cfg *Config) (*Heap, error) {
	cfg = cfg.withDefaults()
	h := &Heap{
		cfg:   cfg,
		large: make(map[uintptr]*largeObj),
		stats: newStats(),
	}
	for i := range h.spaces {
		a, err := host.NewArena(cfg.SemiSpaceSize)
		if err != nil {
			return nil, fmt.Errorf("heap: allocate semi-space %d: %w", i, err)
		}
		h.spaces[i] = a
	}
	h.resetBump(0)
	return h, nil
}

// Close releases both semi-spaces back to the host.
func (h *Heap) Close() error {
	var firstErr error
	for _, a := range h.spaces {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *Heap) resetBump(space int) {
	a := h.spaces[space]
	h.active = space
	h.cur = a.BaseAddr()
	h.limit = a.BaseAddr() + uintptr(a.Len())
	other := h.spaces[1-space]
	h.fromBase = other.BaseAddr()
	h.fromLen = uintptr(other.Len())
}

// Used returns the number of bytes bump-allocated in the active space.
func (h *Heap) Used() int {
	return int(h.cur - h.spaces[h.active].BaseAddr())
}

// inActiveSpace reports whether addr lies within the currently active
// semi-space: every reachable live object lies within the now-active
// semi-space once a collection has completed.
func (h *Heap) inActiveSpace(addr uintptr) bool {
	return h.spaces[h.active].Contains(addr)
}

func (h *Heap) inFromSpace(addr uintptr) bool {
	return addr >= h.fromBase && addr < h.fromBase+h.fromLen
}

// inRAMWindow is a fast bitmask test: a pointer is only a candidate if
// it falls inside either semi-space. We implement it as a bounds check
// against both spaces; large-object arenas are not included. The real
// target instead masks against its 16 MB RAM window in one
// instruction.
func (h *Heap) inRAMWindow(addr uintptr) bool {
	return h.spaces[0].Contains(addr) || h.spaces[1].Contains(addr)
}

// InRAMWindow exports inRAMWindow for callers outside this package that
// need the same fast bounds check before dereferencing a candidate
// pointer — notably iface.Sprint's panic-path printer, which
// bounds-checks pointer addresses against the RAM window before
// dereferencing them since it may run with partially corrupt state.
func (h *Heap) InRAMWindow(addr uintptr) bool {
	return h.inRAMWindow(addr)
}

// InhibitGC enters a GC-inhibit critical section: allocations made
// while inhibit > 0 never trigger a collection. The
// returned function must be called exactly once to leave the section.
func (h *Heap) InhibitGC() (exit func()) {
	h.inhibit++
	return func() { h.inhibit-- }
}

func (h *Heap) gcAllowed() bool {
	return h.inhibit == 0 && !host.InIRQContext() && h.cfg.GCPercent >= 0
}

// Alloc bump-allocates size bytes for an instance of t (t may be nil
// for an untyped buffer, which is always treated as no-scan). It
// collects first if the active space lacks room and collection is
// currently allowed.
func (h *Heap) Alloc(t *rttype.Type, size uintptr) unsafe.Pointer {
	if size == 0 {
		return h.allocZeroSentinel()
	}
	if int(size) > h.cfg.LargeObjectThreshold {
		return h.allocLarge(t, size)
	}

	total := HeaderSize + align8(size)
	if total > uintptr(maxObjectSize) {
		panicrec.Throw(fmt.Sprintf("object size %d exceeds header size field", total))
	}

	threshold := h.cfg.collectThreshold()
	overThreshold := threshold >= 0 && h.Used()+int(total) > threshold
	exhausted := h.cur+total > h.limit
	if (exhausted || overThreshold) && h.gcAllowed() {
		h.Collect()
	}
	if h.cur+total > h.limit {
		fatalOOM(h, total)
	}
	return h.bumpAlloc(t, total, size)
}

// AllocNoCollect is the no-GC allocation path, used from inside the
// panic handler and map bucket growth: it never calls Collect and
// fails fatally on exhaustion instead.
func (h *Heap) AllocNoCollect(t *rttype.Type, size uintptr) unsafe.Pointer {
	if size == 0 {
		return h.allocZeroSentinel()
	}
	total := HeaderSize + align8(size)
	if h.cur+total > h.limit {
		fatalOOM(h, total)
	}
	return h.bumpAlloc(t, total, size)
}

var zeroSentinel = make([]byte, 8)

func (h *Heap) allocZeroSentinel() unsafe.Pointer {
	return unsafe.Pointer(&zeroSentinel[0])
}

func (h *Heap) bumpAlloc(t *rttype.Type, total, size uintptr) unsafe.Pointer {
	obj := unsafe.Pointer(h.cur)
	h.cur += total

	hd := headerAt(obj)
	*hd = header{}
	hd.setSize(int(total))
	noscan := t == nil || t.PtrData == 0
	hd.setNoScan(noscan)
	if t != nil {
		hd.setKind(t.Kind)
		hd.typ = unsafe.Pointer(t)
	}

	payload := payloadOf(obj)
	zeroBytes(payload, size)
	return payload
}

func zeroBytes(p unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(p), int(n))
	for i := range b {
		b[i] = 0
	}
}

func (h *Heap) allocLarge(t *rttype.Type, size uintptr) unsafe.Pointer {
	a, err := host.NewArena(int(size))
	if err != nil {
		fatalOOM(h, size)
	}
	p := a.Base()
	h.mu.Lock()
	h.large[uintptr(p)] = &largeObj{arena: a, size: int(size), typ: t}
	h.mu.Unlock()
	zeroBytes(p, size)
	h.stats.recordLargeAlloc(int(size))
	return p
}

// FreeLarge releases a large object allocated via Alloc/AllocNoCollect
// when its size exceeded LargeObjectThreshold. The program must call
// this explicitly; large objects are never collected.
func (h *Heap) FreeLarge(p unsafe.Pointer) error {
	h.mu.Lock()
	obj, ok := h.large[uintptr(p)]
	delete(h.large, uintptr(p))
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("heap: FreeLarge called on unknown pointer %p", p)
	}
	return obj.arena.Close()
}

func fatalOOM(h *Heap, want uintptr) {
	panicrec.Throw(fmt.Sprintf("out of memory (wanted %d bytes, used %d/%d of active space)",
		want, h.Used(), h.cfg.SemiSpaceSize))
}

// HeaderOf exposes the decoded header fields for a payload pointer
// returned by Alloc; used by tests asserting allocation invariants.
type HeaderInfo struct {
	Size       int
	NoScan     bool
	Kind       rttype.Kind
	Type       *rttype.Type
	Forwarded  bool
	ForwardPtr unsafe.Pointer
}

func (h *Heap) HeaderOf(payload unsafe.Pointer) HeaderInfo {
	hd := headerAt(objOf(payload))
	info := HeaderInfo{Size: hd.size(), NoScan: hd.isNoScan(), Kind: hd.kind(), Forwarded: hd.isForwarded()}
	if info.Forwarded {
		info.ForwardPtr = hd.forwardAddr()
	} else if !info.NoScan {
		info.Type = hd.typePtr()
	}
	return info
}
