// Package hmap implements a dynamically growing hash table: 8-slot
// buckets with cached tophash, incremental same-size/double grow, and
// fast paths for the scalar key kinds.
//
// A real compiled program's bucket is a single packed memory blob
// (tophash array, then 8 keys tightly packed, then 8 values, then an
// overflow pointer) because the compiler knows every instantiation's
// key/value size and alignment ahead of time. This runtime has no
// such compiler: Map is built generically over interface{} keys and
// values, so each bucket stores its 8 keys and 8 values as
// unsafe.Pointer slots pointing at heap-allocated boxes rather than
// inline bytes. The tophash array, the 8-slot fixed width, the
// overflow-chain walk, and the incremental-evacuation bookkeeping are
// all preserved exactly as the real runtime's map does it; only the
// packed-layout detail is traded for safety, the same tradeoff
// rttype's Type documents for its own representation.
package hmap

import (
	"unsafe"

	"github.com/coldboot/micrort/host"
	"github.com/coldboot/micrort/rttype"
)

const (
	bucketCount = 8

	emptyRest      = 0
	emptyOne       = 1
	evacuatedX     = 2
	evacuatedY     = 3
	evacuatedEmpty = 4
	minTopHash     = 5

	// BCap is the platform cap on B ("B ≤ 15").
	BCap = 15

	loadFactorNum = 13
	loadFactorDen = 2

	// evacuationSafetyCap bounds the incremental-evacuation loop so a
	// logic error turns into a fatal report instead of spinning
	// forever.
	evacuationSafetyCap = 1 << 20
)

type flags uint8

const (
	flagWriting flags = 1 << iota
	flagIterator
	flagOldIterator
	flagSameSizeGrow
)

type bucket struct {
	tophash  [bucketCount]uint8
	keys     [bucketCount]unsafe.Pointer
	values   [bucketCount]unsafe.Pointer
	overflow *bucket
}

// Map is the runtime's hmap.
type Map struct {
	count  int
	flags  flags
	b      uint8 // log2(len(buckets))
	noverflow uint16
	hash0  uint32

	keyType *rttype.Type
	valType *rttype.Type

	buckets    []*bucket
	oldBuckets []*bucket
	nevacuate  uintptr

	// generation counts completed hashGrow calls; an Iterator compares
	// its snapshot generation against this to detect "our snapshot
	// buckets became oldbuckets".
	generation int
}

// New constructs an empty map for the given key/value types. The
// bucket array itself is allocated lazily on first write, not here.
func New(keyType, valType *rttype.Type) *Map {
	return &Map{
		keyType: keyType,
		valType: valType,
		hash0:   randSeed(),
	}
}

// randSeed produces the per-map random salt. There is no hardware RNG
// modeled here; nanotime jitter is an adequate, deterministic-enough
// seed source for a single-threaded embedded target, the same spirit
// as rtselect's poll-order seed.
func randSeed() uint32 {
	return uint32(host.NanoTime())
}

func bucketIndex(hash uintptr, b uint8) uintptr {
	if b == 0 {
		return 0
	}
	return hash & (1<<b - 1)
}

func tophashOf(hash uintptr) uint8 {
	top := uint8(hash >> (unsafe.Sizeof(hash)*8 - 8))
	if top < minTopHash {
		top += minTopHash
	}
	return top
}

func boxValue(t *rttype.Type, v interface{}) unsafe.Pointer {
	if v == nil {
		return nil
	}
	p := new(interface{})
	*p = v
	return unsafe.Pointer(p)
}

func unboxValue(p unsafe.Pointer) interface{} {
	if p == nil {
		return nil
	}
	return *(*interface{})(p)
}

// growing reports whether an incremental grow is in progress.
func (m *Map) growing() bool { return m.oldBuckets != nil }

func (m *Map) oldBucketCount() uintptr {
	ob := m.b
	if !m.flags.has(flagSameSizeGrow) {
		ob--
	}
	return uintptr(1) << ob
}

func (f flags) has(bit flags) bool { return f&bit != 0 }

func (m *Map) bucketAt(tbl []*bucket, i uintptr) *bucket {
	if tbl[i] == nil {
		tbl[i] = &bucket{}
	}
	return tbl[i]
}

// Len returns the number of entries.
func (m *Map) Len() int { return m.count }
