package heap

import (
	"unsafe"

	"github.com/coldboot/micrort/rttype"
)

// header is the object header of spec.md §3.2. The target packs flags
// and size into one 32-bit word followed by a 32-bit type-or-forward
// pointer, for an 8-byte header on its 32-bit CPU. This host has
// 8-byte pointers, so the header here is a 32-bit flags/size word
// followed by an 8-byte type-or-forward word; the bit layout of the
// flags/size word is unchanged from spec.md and is the thing every
// invariant in spec.md §8 actually talks about.
type header struct {
	flags uint32
	typ   unsafe.Pointer // *rttype.Type, or (if forwarded) the new address
}

const (
	flagForwarded uint32 = 1 << 31
	flagNoScan    uint32 = 1 << 30
	kindShift            = 24
	kindMask      uint32 = 0x3F << kindShift
	sizeMask      uint32 = 0x00FFFFFF
	maxObjectSize        = int(sizeMask) // 16 MiB, matches the target's RAM budget
)

// HeaderSize is the number of bytes an allocation's header occupies on
// this host. It is wider than the target's 8 bytes because pointers
// are 64 bits here; every size computed by Alloc still rounds the
// payload to an 8-byte boundary as spec.md requires.
const HeaderSize = unsafe.Sizeof(header{})

func headerAt(p unsafe.Pointer) *header {
	return (*header)(p)
}

func (h *header) isForwarded() bool { return h.flags&flagForwarded != 0 }
func (h *header) isNoScan() bool    { return h.flags&flagNoScan != 0 }
func (h *header) kind() rttype.Kind { return rttype.Kind((h.flags & kindMask) >> kindShift) }
func (h *header) size() int         { return int(h.flags & sizeMask) }

func (h *header) setSize(n int) {
	h.flags = (h.flags &^ sizeMask) | (uint32(n) & sizeMask)
}

func (h *header) setKind(k rttype.Kind) {
	h.flags = (h.flags &^ kindMask) | (uint32(k)<<kindShift)&kindMask
}

func (h *header) setNoScan(v bool) {
	if v {
		h.flags |= flagNoScan
	} else {
		h.flags &^= flagNoScan
	}
}

func (h *header) forwardTo(addr unsafe.Pointer) {
	h.flags |= flagForwarded
	h.typ = addr
}

func (h *header) forwardAddr() unsafe.Pointer { return h.typ }

func (h *header) typePtr() *rttype.Type {
	return (*rttype.Type)(h.typ)
}

// align8 rounds n up to the next multiple of 8, the alignment spec.md
// §3.2/§3.3 requires of every object's total size.
func align8(n uintptr) uintptr {
	return (n + 7) &^ 7
}

func payloadOf(obj unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(obj, HeaderSize)
}

func objOf(payload unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(payload, -int(HeaderSize))
}
