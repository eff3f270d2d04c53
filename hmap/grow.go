package hmap

import (
	"unsafe"

	"github.com/coldboot/micrort/panicrec"
)

// overLoadFactorCount reports whether count keys stored across 1<<b
// buckets would exceed the load factor ("count ≤ 6.5 × 2ᴮ"), computed
// as count*2 > buckets*13 to avoid floating point.
func overLoadFactorCount(count int, b uint8) bool {
	if b == 0 {
		return count > bucketCount
	}
	return uint64(count)*loadFactorDen > (uint64(1)<<b)*loadFactorNum
}

func (m *Map) overLoadFactor() bool {
	return overLoadFactorCount(m.count+1, m.b)
}

// tooManyOverflowBuckets reports whether the map has accumulated more
// overflow buckets than is healthy for its size, the same-size-grow
// trigger for a map that is overflow-heavy but at low load.
func (m *Map) tooManyOverflowBuckets() bool {
	b := m.b
	if b > 15 {
		b = 15
	}
	return m.noverflow >= uint16(1)<<b
}

// hashGrow starts an incremental grow: a same-size grow when the map
// is merely overflow-fragmented at low load, else a double grow that
// increments B. Either way the old bucket array is retained as
// oldBuckets and entries migrate lazily via evacuateStep as subsequent
// writes touch each old bucket.
func (m *Map) hashGrow() {
	sameSize := !m.overLoadFactor()
	if !sameSize {
		if m.b >= BCap {
			panicrec.Throw("hmap: map grown past the maximum bucket count")
		}
		m.b++
	}
	m.oldBuckets = m.buckets
	m.buckets = make([]*bucket, uintptr(1)<<m.b)
	m.nevacuate = 0
	m.noverflow = 0
	m.generation++
	if sameSize {
		m.flags |= flagSameSizeGrow
	} else {
		m.flags &^= flagSameSizeGrow
	}
}

// evacuateStep performs the incremental-evacuation work for one write:
// evacuate the old bucket destIdx's hash would have mapped to, plus
// one additional bucket in nevacuate order, so the cumulative
// evacuation work across N writes is O(N) amortized.
func (m *Map) evacuateStep(destIdx uintptr) {
	if !m.growing() {
		return
	}
	oldMask := m.oldBucketCount() - 1
	m.evacuate(destIdx & oldMask)
	if m.growing() {
		m.evacuate(m.nevacuate)
	}
}

// evacuate migrates every live entry in old bucket oldIdx (and its
// overflow chain) into the new table, marks the chain evacuated, and
// advances nevacuate past any buckets already finished, bounded by
// evacuationSafetyCap as a pathological-loop guard.
func (m *Map) evacuate(oldIdx uintptr) {
	if int(oldIdx) >= len(m.oldBuckets) || m.evacuated(oldIdx) {
		m.advanceNevacuate()
		return
	}
	ob := m.oldBuckets[oldIdx]

	sameSize := m.flags.has(flagSameSizeGrow)
	splitBit := m.oldBucketCount() // 1<<oldB; also the X/Y split point for a double grow

	for b := ob; b != nil; b = b.overflow {
		for i := 0; i < bucketCount; i++ {
			top := b.tophash[i]
			if top == emptyRest || top == emptyOne {
				// Mark the slot itself, not just the live ones: evacuated()
				// only inspects tophash[0], so a bucket whose first slot was
				// emptied by a prior Delete must still flip to a recognized
				// evacuated marker or the bucket reads as un-evacuated forever.
				b.tophash[i] = evacuatedEmpty
				continue
			}
			destIdx := oldIdx
			mark := uint8(evacuatedX)
			if !sameSize {
				hash := m.hashKey(unboxValue(b.keys[i]))
				if hash&splitBit != 0 {
					destIdx = oldIdx + splitBit
					mark = evacuatedY
				}
			}
			m.insertEvacuated(destIdx, top, b.keys[i], b.values[i])
			b.tophash[i] = mark
		}
	}
	m.advanceNevacuate()
}

// insertEvacuated appends one already-boxed key/value pair, carrying
// its original tophash, into the new table at destIdx. Growth is
// never re-triggered here: Put/Delete decide whether to grow before
// evacuation starts.
func (m *Map) insertEvacuated(destIdx uintptr, top uint8, keyPtr, valPtr unsafe.Pointer) {
	b := m.bucketAt(m.buckets, destIdx)
	for {
		for i := 0; i < bucketCount; i++ {
			if b.tophash[i] == emptyRest || b.tophash[i] == emptyOne {
				b.tophash[i] = top
				b.keys[i] = keyPtr
				b.values[i] = valPtr
				return
			}
		}
		if b.overflow == nil {
			nb := &bucket{}
			b.overflow = nb
			m.noverflow++
			b = nb
			continue
		}
		b = b.overflow
	}
}

func (m *Map) advanceNevacuate() {
	steps := 0
	for m.growing() && int(m.nevacuate) < len(m.oldBuckets) && m.evacuated(m.nevacuate) {
		m.nevacuate++
		steps++
		if steps > evacuationSafetyCap {
			panicrec.Throw("hmap: evacuation safety cap exceeded")
		}
	}
	if m.growing() && int(m.nevacuate) >= len(m.oldBuckets) {
		m.oldBuckets = nil
		m.flags &^= flagSameSizeGrow
	}
}

// Clear implements runtime.mapclear: drop every entry and return the
// map to its pre-grow, pre-write state.
func (m *Map) Clear() {
	m.buckets = nil
	m.oldBuckets = nil
	m.b = 0
	m.count = 0
	m.nevacuate = 0
	m.noverflow = 0
	m.flags &^= flagSameSizeGrow
}
