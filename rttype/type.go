package rttype

import (
	"fmt"
	"unsafe"
)

// EqualFunc compares two values of the type addressed by p1/p2. It is nil
// for non-comparable kinds (slice, map, func); using such a type as a map
// key or interface equality operand is a caller-detected panic, not a
// nil-pointer crash here (see iface.Equal, hmap).
type EqualFunc func(p1, p2 unsafe.Pointer) bool

// HashFunc hashes the value addressed by p, mixing in seed. It is nil for
// the same set of kinds as EqualFunc.
type HashFunc func(p unsafe.Pointer, seed uintptr) uintptr

// Method describes one entry of a named type's method set, or one entry
// of an interface's method list. Name and PkgPath are interned: callers
// are expected to compare them by pointer identity first and fall back
// to byte comparison (see itab construction in package iface).
type Method struct {
	Name    *string
	PkgPath *string // nil for exported methods
	MType   *Type   // method signature, ignoring receiver
	FuncPtr uintptr // 0 for interface method entries (no implementation)
}

// Uncommon carries the method list for named types and the type's own
// name. Anonymous types (e.g. a bare struct literal type) have a nil
// Uncommon.
type Uncommon struct {
	Name    string
	PkgPath string
	Methods []Method
}

// Type is the static, read-only descriptor for one program type. A
// compiler-emitted Type never moves and never appears on the managed
// heap; every pointer to a Type found while scanning is therefore
// skipped by the from-space/to-space pointer filters (see heap.Forward).
type Type struct {
	Size       uintptr
	PtrData    uintptr // byte length of the pointer-containing prefix
	Hash       uint32  // type identity hash, used by map/interface hashing
	Align      uint8
	FieldAlign uint8
	Kind       Kind
	Flags      Flag

	EqualFn EqualFunc
	HashFn  HashFunc

	// GCData holds 1 bit per pointer-sized word of the PtrData prefix:
	// 1 means the word is a managed pointer, 0 means scalar. Only
	// meaningful when Flags does not carry FlagGCProg.
	GCData []byte

	Uncommon *Uncommon
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	if t.Uncommon != nil && t.Uncommon.Name != "" {
		return t.Uncommon.Name
	}
	return t.Kind.String()
}

// PtrWords returns the number of pointer-sized words covered by GCData.
func (t *Type) PtrWords() int {
	const wordSize = 8
	return int((t.PtrData + wordSize - 1) / wordSize)
}

// BitSet reports whether word index i (0-based, within PtrWords) is
// marked as a pointer in GCData.
func (t *Type) BitSet(i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(t.GCData) {
		return false
	}
	return t.GCData[byteIdx]&(1<<uint(i%8)) != 0
}

// Comparable reports whether values of this type may be used as map
// keys or compared with ==. A nil EqualFn means the kind is inherently
// non-comparable (spec.md §3.1).
func (t *Type) Comparable() bool {
	return t.EqualFn != nil
}

// Method looks up a named method by identity-then-bytes comparison of
// interned name pointers, matching the itab-construction contract of
// spec.md §4.7.
func (t *Type) Method(name string) (Method, bool) {
	if t.Uncommon == nil {
		return Method{}, false
	}
	for _, m := range t.Uncommon.Methods {
		if m.Name != nil && *m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

func (t *Type) GoString() string {
	return fmt.Sprintf("Type{%s size=%d ptrdata=%d kind=%s}", t.String(), t.Size, t.PtrData, t.Kind)
}
