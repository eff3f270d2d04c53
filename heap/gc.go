package heap

import (
	"time"
	"unsafe"

	"github.com/coldboot/micrort/rttype"
)

// Collect runs one stop-the-world Cheney copy. There is only ever one
// task running at a time, so "stop the world" here just means "run to
// completion before returning" — there is no other goroutine to pause.
func (h *Heap) Collect() {
	start := time.Now()
	toSpace := 1 - h.active
	h.resetBump(toSpace)
	scan := h.spaces[toSpace].BaseAddr()

	h.scanExplicitRoots()
	h.scanRootLists()
	h.scanTaskRoots()

	for scan < h.cur {
		obj := unsafe.Pointer(scan)
		hd := headerAt(obj)
		sz := hd.size()
		if sz == 0 {
			break // corrupt/short to-space object; stop rather than loop forever
		}
		if !hd.isNoScan() {
			h.scanObject(obj, hd)
		}
		scan += uintptr(sz)
	}

	h.stats.recordPause(time.Since(start))
	h.beginDeferredInvalidate(1 - toSpace)
}

func (h *Heap) scanExplicitRoots() {
	for _, r := range h.roots {
		h.forwardField(r)
	}
}

func (h *Heap) scanRootLists() {
	for _, rl := range h.rootLists {
		h.scanPtrData(rl.Data, rl.PtrData, rl.GCData)
	}
}

func (h *Heap) scanTaskRoots() {
	if h.taskRoots == nil {
		return
	}
	for _, r := range h.taskRoots() {
		h.forwardField(r)
	}
}

// scanObject dispatches on the object's type kind: a precise bitmap
// scan when a type with GCData is known, an element-wise walk for
// arrays whose total size exceeds one element (slices backing
// arrays), else a conservative scan of the ptrdata prefix.
func (h *Heap) scanObject(obj unsafe.Pointer, hd *header) {
	t := hd.typePtr()
	payload := payloadOf(obj)
	if t == nil {
		return
	}
	if t.Flags.Has(rttype.FlagGCProg) || len(t.GCData) == 0 {
		h.scanConservativeRange(payload, uintptr(hd.size())-HeaderSize)
		return
	}
	objSize := uintptr(hd.size()) - HeaderSize
	if t.Size > 0 && objSize > t.Size {
		// Backing array of a slice/array type larger than one element:
		// walk element by element.
		n := objSize / t.Size
		for i := uintptr(0); i < n; i++ {
			elemPtr := unsafe.Add(payload, i*t.Size)
			h.scanPtrData(elemPtr, t.PtrData, t.GCData)
		}
		return
	}
	h.scanPtrData(payload, t.PtrData, t.GCData)
}

// scanPtrData is the bitmap-scanning optimization: only bits set in
// gcdata are visited.
func (h *Heap) scanPtrData(base unsafe.Pointer, ptrData uintptr, gcdata []byte) {
	words := int((ptrData + 7) / 8)
	for i := 0; i < words; i++ {
		byteIdx := i / 8
		if byteIdx >= len(gcdata) {
			break
		}
		if gcdata[byteIdx]&(1<<uint(i%8)) == 0 {
			continue
		}
		field := (*unsafe.Pointer)(unsafe.Add(base, i*8))
		h.forwardField(field)
	}
}

// scanConservativeRange treats every aligned pointer-sized word in
// [base, base+n) as a candidate pointer, the fallback for types with
// no known layout.
func (h *Heap) scanConservativeRange(base unsafe.Pointer, n uintptr) {
	words := int(n / 8)
	for i := 0; i < words; i++ {
		field := (*unsafe.Pointer)(unsafe.Add(base, i*8))
		h.forwardField(field)
	}
}

// ScanConservativeRange is the exported form of a conservative scan
// over an arbitrary byte range — the mechanism a real port would point
// at a task's machine stack. It is exercised
// directly by tests and is available to callers that maintain their
// own untyped buffers they want the collector to treat conservatively.
func (h *Heap) ScanConservativeRange(base unsafe.Pointer, n uintptr) {
	if n > uintptr(h.cfg.StackScanMaxBytes) {
		n = uintptr(h.cfg.StackScanMaxBytes)
	}
	h.scanConservativeRange(base, n)
}

// forwardField implements forwarding and pointer update: reject
// out-of-RAM and out-of-from-space pointers fast, follow an existing
// forwarding pointer, else validate-and-copy, else skip.
func (h *Heap) forwardField(field *unsafe.Pointer) {
	p := *field
	if p == nil {
		return
	}
	addr := uintptr(p)
	if !h.inRAMWindow(addr) {
		return
	}
	if !h.inFromSpace(addr) {
		return
	}

	obj := objOf(p)
	if uintptr(obj) < h.fromBase {
		return // pointer to inside an object's payload but before any
		// valid header; treat as stale and skip it.
	}
	hd := headerAt(obj)
	if hd.isForwarded() {
		*field = payloadOf(hd.forwardAddr())
		return
	}
	if !h.validHeader(hd, obj) {
		return // stale pointer into what will become garbage; safe to skip
	}

	total := uintptr(hd.size())
	newObj := unsafe.Pointer(h.cur)
	if h.cur+total > h.limit {
		panic("runtime: to-space overflow during collection (live set exceeds semi-space)")
	}
	h.cur += total
	h.copyObject(newObj, obj, total)

	hd.forwardTo(newObj)
	*field = payloadOf(newObj)
}

// validHeader checks the invariants required before trusting an
// unforwarded header found during forwarding: non-zero,
// aligned, in-bounds size, and (if present) a non-zero type pointer
// outside both semi-spaces and 4-byte aligned.
func (h *Heap) validHeader(hd *header, obj unsafe.Pointer) bool {
	sz := hd.size()
	if sz <= 0 || sz%8 != 0 {
		return false
	}
	if uintptr(obj)+uintptr(sz) > h.fromBase+h.fromLen {
		return false
	}
	if !hd.isNoScan() {
		tp := uintptr(hd.typ)
		if tp == 0 {
			return false
		}
		if h.spaces[0].Contains(tp) || h.spaces[1].Contains(tp) {
			return false // type descriptors never live on the managed heap
		}
		if tp%4 != 0 {
			return false
		}
	}
	return true
}

// copyObject moves total bytes from src to dst. Objects at least 128
// bytes with both ends 32-byte aligned use the "store-queue" path; on
// this host that path and the plain-copy path are both a Go copy(),
// but the branch and its counter are kept so the split remains
// observable and testable (see original_source/runtime/copy.h).
func (h *Heap) copyObject(dst, src unsafe.Pointer, total uintptr) {
	dstB := unsafe.Slice((*byte)(dst), int(total))
	srcB := unsafe.Slice((*byte)(src), int(total))
	h.stats.mu.Lock()
	if total >= 128 && uintptr(dst)%32 == 0 && uintptr(src)%32 == 0 {
		h.stats.storeQueueCopies++
	} else {
		h.stats.memcpyCopies++
	}
	h.stats.mu.Unlock()
	copy(dstB, srcB)
}

// beginDeferredInvalidate records that the newly-retired from-space
// needs its cache lines invalidated before reuse. The work itself is
// drained incrementally by DrainInvalidate.
func (h *Heap) beginDeferredInvalidate(retiredSpace int) {
	h.invalidatePending = true
	h.invalidateSpace = retiredSpace
	h.invalidateOff = 0
}

// DrainInvalidate processes up to chunkBytes of the pending deferred
// cache-invalidation pass. No package in this module calls it: the
// pass advances only when the embedding program calls it.
func (h *Heap) DrainInvalidate(chunkBytes int) {
	if !h.invalidatePending {
		return
	}
	a := h.spaces[h.invalidateSpace]
	a.PoisonRange(h.invalidateOff, chunkBytes)
	h.invalidateOff += chunkBytes
	if h.invalidateOff >= a.Len() {
		h.invalidatePending = false
	}
}

// InvalidatePending reports whether a deferred cache-invalidation pass
// is still in progress.
func (h *Heap) InvalidatePending() bool { return h.invalidatePending }
