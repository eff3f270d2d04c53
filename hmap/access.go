package hmap

import "github.com/coldboot/micrort/panicrec"

// Get implements spec.md §4.6 mapaccess1/mapaccess2 combined: the
// boolean result is mapaccess2's ok.
func (m *Map) Get(key interface{}) (interface{}, bool) {
	if m.flags.has(flagWriting) {
		panicrec.Throw("concurrent map read and map write")
	}
	if m.buckets == nil || m.count == 0 {
		return nil, false
	}

	hash := m.hashKey(key)
	b := m.b

	if m.growing() {
		oldIdx := bucketIndex(hash, m.b-oldBucketDelta(m))
		if !m.evacuated(oldIdx) {
			return m.searchBucket(m.oldBuckets, oldIdx, hash, key)
		}
	}

	idx := bucketIndex(hash, b)
	return m.searchBucket(m.buckets, idx, hash, key)
}

func oldBucketDelta(m *Map) uint8 {
	if m.flags.has(flagSameSizeGrow) {
		return 0
	}
	return 1
}

// evacuated reports whether old bucket index i has already been
// migrated to the new table.
func (m *Map) evacuated(i uintptr) bool {
	if int(i) >= len(m.oldBuckets) || m.oldBuckets[i] == nil {
		return true
	}
	top := m.oldBuckets[i].tophash[0]
	return top == evacuatedX || top == evacuatedY || top == evacuatedEmpty
}

func (m *Map) searchBucket(tbl []*bucket, idx uintptr, hash uintptr, key interface{}) (interface{}, bool) {
	if int(idx) >= len(tbl) {
		return nil, false
	}
	top := tophashOf(hash)
	for b := tbl[idx]; b != nil; b = b.overflow {
		for i := 0; i < bucketCount; i++ {
			if b.tophash[i] == emptyRest {
				return nil, false
			}
			if b.tophash[i] != top {
				continue
			}
			k := unboxValue(b.keys[i])
			if m.equalKeys(k, key) {
				return unboxValue(b.values[i]), true
			}
		}
	}
	return nil, false
}
