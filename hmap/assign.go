package hmap

import "github.com/coldboot/micrort/panicrec"

// Put implements spec.md §4.6 mapassign: insert or update, with
// incremental-evacuation bookkeeping and grow-on-demand.
func (m *Map) Put(key, value interface{}) {
	if m.flags.has(flagWriting) {
		panicrec.Throw("concurrent map writes")
	}
	if m.buckets == nil {
		m.buckets = make([]*bucket, 1)
	}
	m.flags |= flagWriting

	hash := m.hashKey(key)

	for {
		if m.growing() {
			m.evacuateStep(bucketIndex(hash, m.b))
		}

		idx := bucketIndex(hash, m.b)
		top := tophashOf(hash)

		var insertBucket *bucket
		var insertSlot = -1
		b := m.bucketAt(m.buckets, idx)
		for {
			found := false
			for i := 0; i < bucketCount; i++ {
				if b.tophash[i] != top {
					if b.tophash[i] == emptyRest && insertBucket == nil {
						insertBucket, insertSlot = b, i
					}
					if b.tophash[i] == emptyOne && insertBucket == nil {
						insertBucket, insertSlot = b, i
					}
					continue
				}
				if !m.equalKeys(unboxValue(b.keys[i]), key) {
					continue
				}
				b.values[i] = boxValue(m.valType, value)
				found = true
				break
			}
			if found {
				m.flags &^= flagWriting
				return
			}
			if b.overflow == nil {
				break
			}
			b = b.overflow
		}

		if insertBucket == nil {
			if !m.growing() && (m.overLoadFactor() || m.tooManyOverflowBuckets()) {
				m.hashGrow()
				continue
			}
			insertBucket = &bucket{}
			b.overflow = insertBucket
			m.noverflow++
			insertSlot = 0
		}

		insertBucket.tophash[insertSlot] = top
		insertBucket.keys[insertSlot] = boxValue(m.keyType, key)
		insertBucket.values[insertSlot] = boxValue(m.valType, value)
		m.count++
		m.flags &^= flagWriting
		return
	}
}

// Delete implements spec.md §4.6's Delete: zero the slot and mark it
// EMPTY_ONE, promoting to EMPTY_REST when the rest of the bucket (and
// its overflow chain) is empty.
func (m *Map) Delete(key interface{}) {
	if m.flags.has(flagWriting) {
		panicrec.Throw("concurrent map writes")
	}
	if m.buckets == nil || m.count == 0 {
		return
	}
	m.flags |= flagWriting
	defer func() { m.flags &^= flagWriting }()

	hash := m.hashKey(key)
	if m.growing() {
		m.evacuateStep(bucketIndex(hash, m.b))
	}

	idx := bucketIndex(hash, m.b)
	top := tophashOf(hash)
	b := m.bucketAt(m.buckets, idx)
	for ; b != nil; b = b.overflow {
		for i := 0; i < bucketCount; i++ {
			if b.tophash[i] != top {
				continue
			}
			if !m.equalKeys(unboxValue(b.keys[i]), key) {
				continue
			}
			b.keys[i] = nil
			b.values[i] = nil
			b.tophash[i] = emptyOne
			m.count--
			promoteEmptyRest(b, i)
			return
		}
	}
}

// promoteEmptyRest marks slot i, and every following empty slot back
// to the start of the run, EMPTY_REST if nothing live remains after
// them in this bucket or its overflow chain (spec.md §4.6 Delete).
func promoteEmptyRest(b *bucket, i int) {
	for j := i; j < bucketCount; j++ {
		if b.tophash[j] != emptyOne && b.tophash[j] != emptyRest {
			return
		}
	}
	if b.overflow != nil {
		return
	}
	for j := i; j >= 0 && (b.tophash[j] == emptyOne || b.tophash[j] == emptyRest); j-- {
		b.tophash[j] = emptyRest
	}
}
