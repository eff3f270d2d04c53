package hmap

import "github.com/coldboot/micrort/host"

// Iterator walks a Map's entries in the randomized-start, wrap-once
// order of spec.md §4.6 "Iterator": a random starting bucket and
// in-bucket slot offset, walking buckets in index order (following
// overflow chains) and stopping once it wraps back to the start.
//
// It snapshots B/buckets/generation at construction. If the map grows
// while iteration is in progress, the next Next call notices the
// generation changed, refreshes its snapshot to the current table, and
// restarts its bucket walk from a freshly chosen position — the
// "simpler variant" spec.md §4.6/§9 explicitly allows, which may
// re-yield some entries already seen but never misses one that
// survives to the end of the grow.
// noCheckBucket marks an Iterator as not currently walking an
// unevacuated old bucket on the grow-in-progress path, so Next need
// not re-hash each key to decide whether it belongs in this bucket.
const noCheckBucket = ^uintptr(0)

type Iterator struct {
	m *Map

	snapGen     int
	snapB       uint8
	snapBuckets []*bucket

	startBucket uintptr
	offset      uint8

	bucketIdx   uintptr
	checkBucket uintptr
	b           *bucket
	slot        int

	done bool

	Key   interface{}
	Value interface{}
}

// Iterate returns a fresh Iterator over m, per spec.md's mapiterinit.
func (m *Map) Iterate() *Iterator { return NewIterator(m) }

// NewIterator implements spec.md's mapiterinit.
func NewIterator(m *Map) *Iterator {
	it := &Iterator{m: m}
	m.flags |= flagIterator
	if m.growing() {
		m.flags |= flagOldIterator
	}
	it.resnapshot()
	return it
}

func (it *Iterator) resnapshot() {
	m := it.m
	it.snapGen = m.generation
	it.snapB = m.b
	it.snapBuckets = m.buckets

	n := uintptr(1) << it.snapB
	seed := uint64(host.NanoTime()) ^ uint64(uintptr(len(m.buckets)))<<32
	if n > 0 {
		it.startBucket = uintptr(seed) % n
	} else {
		it.startBucket = 0
	}
	it.offset = uint8(seed >> 16)
	it.bucketIdx = it.startBucket
	it.loadBucket()
}

// loadBucket loads the bucket chain for the current bucketIdx. While a
// grow is in progress and our snapshot hasn't been invalidated by a
// later grow, the new-table bucket at this index may still be empty
// because its corresponding old bucket hasn't been evacuated yet — in
// that case we walk the old bucket instead and set checkBucket so Next
// filters out entries that will end up on the other half of the split.
func (it *Iterator) loadBucket() {
	it.slot = 0
	m := it.m
	bucket := it.bucketIdx

	if m.growing() && it.snapB == m.b {
		oldIdx := bucket & (m.oldBucketCount() - 1)
		if int(oldIdx) < len(m.oldBuckets) && !m.evacuated(oldIdx) {
			it.b = m.oldBuckets[oldIdx]
			if m.flags.has(flagSameSizeGrow) {
				it.checkBucket = noCheckBucket
			} else {
				it.checkBucket = bucket
			}
			return
		}
	}

	it.checkBucket = noCheckBucket
	if int(bucket) < len(it.snapBuckets) {
		it.b = it.snapBuckets[bucket]
	} else {
		it.b = nil
	}
}

// Next implements spec.md's mapiternext.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	for {
		if it.m.generation != it.snapGen {
			it.resnapshot()
		}
		if it.b == nil {
			if !it.advanceBucket() {
				it.done = true
				return false
			}
			continue
		}
		for it.slot < bucketCount {
			offi := (it.slot + int(it.offset)) & (bucketCount - 1)
			it.slot++
			top := it.b.tophash[offi]
			if top < minTopHash {
				continue // EMPTY_REST/EMPTY_ONE/EVACUATED_* sentinel, not a live entry
			}
			key := unboxValue(it.b.keys[offi])
			if it.checkBucket != noCheckBucket {
				// Walking an unevacuated old bucket during a double grow:
				// skip entries that will land in the other half of the split.
				hash := it.m.hashKey(key)
				if bucketIndex(hash, it.snapB) != it.checkBucket {
					continue
				}
			}
			it.Key = key
			it.Value = unboxValue(it.b.values[offi])
			return true
		}
		it.b = it.b.overflow
		it.slot = 0
	}
}

// advanceBucket moves to the next bucket index, reporting false once
// the walk has wrapped all the way back to the starting bucket (every
// bucket has now been visited exactly once).
func (it *Iterator) advanceBucket() bool {
	n := uintptr(1) << it.snapB
	if n == 0 {
		return false
	}
	next := (it.bucketIdx + 1) % n
	if next == it.startBucket {
		return false
	}
	it.bucketIdx = next
	it.loadBucket()
	return true
}
