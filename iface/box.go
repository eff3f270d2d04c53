package iface

import (
	"unsafe"

	"github.com/coldboot/micrort/heap"
	"github.com/coldboot/micrort/rttype"
)

// staticUint64s mirrors spec.md §4.7's "Boxing (convT*)": a static
// 256-entry table of already-boxed small values, letting convT32/convT64
// skip the allocator entirely for the values programs box the most
// (loop counters, small indices, error codes).
var staticUint64s [256]uint64

func init() {
	for i := range staticUint64s {
		staticUint64s[i] = uint64(i)
	}
}

// staticUint64Addr returns the address convT32/convT64 should box to for
// v, when v fits the static table; ok is false otherwise.
func staticUint64Addr(v uint64) (uintptr, bool) {
	if v >= uint64(len(staticUint64s)) {
		return 0, false
	}
	return uintptr(unsafe.Pointer(&staticUint64s[v])), true
}

// ConvT2E implements spec.md §4.7's runtime.convT2E: box an arbitrary
// value into an Eface. Pointer-shaped direct types need no allocation
// at all (their bit pattern already IS the data word); a zero-size
// type boxes to a shared non-nil sentinel address, never the allocator
// (spec.md's "zerobase" rule, so two zero-size values still compare
// unequal only by type, never crash on a nil box); everything else
// allocates size bytes on h and copies src's bytes in.
func ConvT2E(h *heap.Heap, t *rttype.Type, src unsafe.Pointer) Eface {
	return Eface{Type: t, Data: box(h, t, src)}
}

// ConvT2I is ConvT2E's non-empty-interface counterpart (runtime.convT2I):
// box src per t, then resolve the itab for inter.
func ConvT2I(h *heap.Heap, inter *rttype.InterfaceType, t *rttype.Type, src unsafe.Pointer) Iface {
	it, _ := GetItab(inter, t, false)
	return Iface{Tab: it, Data: box(h, t, src)}
}

func box(h *heap.Heap, t *rttype.Type, src unsafe.Pointer) uintptr {
	if t.Flags.Has(rttype.FlagDirectIface) {
		return *(*uintptr)(src)
	}
	if t.Size == 0 {
		return zerobaseAddr()
	}
	if t.Size <= 8 {
		if addr, ok := staticUint64Addr(readSmall(src, t.Size)); ok {
			return addr
		}
	}
	dst := h.Alloc(t, t.Size)
	copySmall(dst, src, t.Size)
	return uintptr(dst)
}

// zerobase is the shared box target for every zero-size type, so boxing
// one never touches the allocator and never returns a nil data word
// (spec.md §4.7: a nil Eface.Data always means "no value", never "the
// zero value of a zero-size type").
var zerobase byte

func zerobaseAddr() uintptr { return uintptr(unsafe.Pointer(&zerobase)) }

func readSmall(p unsafe.Pointer, size uintptr) uint64 {
	var v uint64
	b := (*[8]byte)(unsafe.Pointer(&v))
	src := (*[8]byte)(p)
	for i := uintptr(0); i < size; i++ {
		b[i] = src[i]
	}
	return v
}

func copySmall(dst, src unsafe.Pointer, size uintptr) {
	d := (*[1 << 30]byte)(dst)[:size:size]
	s := (*[1 << 30]byte)(src)[:size:size]
	copy(d, s)
}

// ConvTstring implements runtime.convTstring: strings never fit the
// static table and are never direct-iface, but spec.md §4.7 special
// cases the empty string to a shared sentinel the same way zero-size
// types are, since "" is the single most boxed string value.
func ConvTstring(h *heap.Heap, s string) Eface {
	if len(s) == 0 {
		return Eface{Type: rttype.String, Data: zerobaseAddr()}
	}
	dst := h.Alloc(rttype.String, rttype.String.Size)
	*(*string)(dst) = s
	return Eface{Type: rttype.String, Data: uintptr(dst)}
}
