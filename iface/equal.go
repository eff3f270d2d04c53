package iface

import (
	"unsafe"

	"github.com/coldboot/micrort/rttype"
)

// EfaceEqual implements spec.md §4.7's runtime.efaceeq: type identity
// by pointer, then the concrete type's equality function.
func EfaceEqual(a, b Eface) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type == nil {
		return true // both nil interfaces
	}
	return compare(a.Type, a.Data, b.Data)
}

// IfaceEqual implements spec.md §4.7's runtime.ifaceeq, comparing two
// non-empty interface values by their itabs' concrete type.
func IfaceEqual(a, b Iface) bool {
	at := typeOf(a)
	bt := typeOf(b)
	if at != bt {
		return false
	}
	if at == nil {
		return true
	}
	return compare(at, a.Data, b.Data)
}

func typeOf(i Iface) *rttype.Type {
	if i.Tab == nil {
		return nil
	}
	return i.Tab.Type
}

// compare applies t's equality function, or panics per spec.md §3.1:
// "a nil EqualFn... attempting to use the type as... an interface
// equality target is a runtime panic." Equality is always valid on an
// unhashable value (spec.md §4.7); only hashing panics for those.
//
// Eface/Iface values here carry no task context to unwind through, so
// this raises an ordinary Go panic, which the caller can recover.
func compare(t *rttype.Type, a, b uintptr) bool {
	if t.EqualFn == nil {
		panic("comparing uncomparable type " + t.String())
	}
	return t.EqualFn(unsafe.Pointer(a), unsafe.Pointer(b))
}

// InterHash implements spec.md §6's runtime.interhash: hash a
// non-empty interface by delegating to its dynamic type's hasher.
// Panics if the dynamic type is unhashable (spec.md §4.6 "Hashing").
func InterHash(i Iface, seed uintptr) uintptr {
	t := typeOf(i)
	if t == nil {
		return seed
	}
	return hashOf(t, i.Data, seed)
}

// NilInterHash implements runtime.nilinterhash for the empty
// interface form.
func NilInterHash(e Eface, seed uintptr) uintptr {
	if e.Type == nil {
		return seed
	}
	return hashOf(e.Type, e.Data, seed)
}

func hashOf(t *rttype.Type, data uintptr, seed uintptr) uintptr {
	if t.HashFn == nil {
		panic("hash of unhashable type " + t.String())
	}
	return t.HashFn(unsafe.Pointer(data), seed)
}
