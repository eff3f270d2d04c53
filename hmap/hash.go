package hmap

import (
	"fmt"
	"hash/fnv"
	"reflect"
	"unsafe"

	"github.com/coldboot/micrort/iface"
	"github.com/coldboot/micrort/panicrec"
	"github.com/coldboot/micrort/rttype"
)

// hashKey computes the tophash-bearing hash of key, consulting the
// map's key type descriptor per spec.md §4.6: "the map consults the
// type descriptor's hasher function pointer... a per-map random salt
// hash0 is mixed in". The scalar/string fast paths call the exact
// HashFn the type descriptor carries, reproducing its byte layout
// with a small stack-local copy since keys here are boxed interface{}
// rather than inline bytes (see package doc). A key whose map key type
// is itself an interface (KindInterface) delegates to package iface's
// interhash/nilinterhash (spec.md §4.7), dispatching through the
// dynamic value's own type descriptor exactly as a compiled program
// would. Everything else falls back to a generic formatting-based
// hash, the practical stand-in for a per-field recursive hasher this
// host has no AOT compiler to generate.
func (m *Map) hashKey(key interface{}) uintptr {
	switch m.keyType {
	case rttype.Uint32, rttype.Int32:
		v := scalarToUint32(key)
		return m.keyType.HashFn(unsafe.Pointer(&v), uintptr(m.hash0))
	case rttype.Uint64, rttype.Int64:
		v := scalarToUint64(key)
		return m.keyType.HashFn(unsafe.Pointer(&v), uintptr(m.hash0))
	case rttype.String:
		s, _ := key.(string)
		return m.keyType.HashFn(unsafe.Pointer(&s), uintptr(m.hash0))
	default:
		if m.keyType.Kind == rttype.KindInterface {
			return hashInterfaceKey(key, uintptr(m.hash0))
		}
		if m.keyType.HashFn == nil && !genericallyHashable(key) {
			panicrec.Throw("hash of unhashable type " + m.keyType.String())
		}
		return genericHash(key, m.hash0)
	}
}

// hashInterfaceKey hashes a key boxed as an iface.Eface or iface.Iface
// via the dynamic value's own hasher, falling back to the generic path
// for keys not boxed through package iface (e.g. test code storing
// plain Go values directly under an interface-kinded key type).
func hashInterfaceKey(key interface{}, seed uintptr) uintptr {
	switch v := key.(type) {
	case iface.Eface:
		return iface.NilInterHash(v, seed)
	case iface.Iface:
		return iface.InterHash(v, seed)
	default:
		return genericHash(key, uint32(seed))
	}
}

func (m *Map) equalKeys(a, b interface{}) bool {
	switch m.keyType {
	case rttype.Uint32, rttype.Int32:
		av, bv := scalarToUint32(a), scalarToUint32(b)
		return m.keyType.EqualFn(unsafe.Pointer(&av), unsafe.Pointer(&bv))
	case rttype.Uint64, rttype.Int64:
		av, bv := scalarToUint64(a), scalarToUint64(b)
		return m.keyType.EqualFn(unsafe.Pointer(&av), unsafe.Pointer(&bv))
	case rttype.String:
		as, _ := a.(string)
		bs, _ := b.(string)
		return m.keyType.EqualFn(unsafe.Pointer(&as), unsafe.Pointer(&bs))
	case rttype.Bool:
		ab, _ := a.(bool)
		bb, _ := b.(bool)
		return m.keyType.EqualFn(unsafe.Pointer(&ab), unsafe.Pointer(&bb))
	default:
		if m.keyType.Kind == rttype.KindInterface {
			return equalInterfaceKeys(a, b)
		}
		return a == b
	}
}

// equalInterfaceKeys compares two keys boxed through package iface
// (spec.md §4.7's efaceeq/ifaceeq), falling back to Go's native ==
// when a key isn't boxed that way.
func equalInterfaceKeys(a, b interface{}) bool {
	switch av := a.(type) {
	case iface.Eface:
		bv, ok := b.(iface.Eface)
		return ok && iface.EfaceEqual(av, bv)
	case iface.Iface:
		bv, ok := b.(iface.Iface)
		return ok && iface.IfaceEqual(av, bv)
	default:
		return a == b
	}
}

func scalarToUint32(v interface{}) uint32 {
	switch x := v.(type) {
	case uint32:
		return x
	case int32:
		return uint32(x)
	default:
		panicrec.Throw("hmap: key value does not match the map's key type")
		return 0
	}
}

func scalarToUint64(v interface{}) uint64 {
	switch x := v.(type) {
	case uint64:
		return x
	case int64:
		return uint64(x)
	default:
		panicrec.Throw("hmap: key value does not match the map's key type")
		return 0
	}
}

// genericallyHashable reports whether key's dynamic Go type is itself
// comparable, standing in for iface's per-dynamic-type hasher lookup
// (spec.md §4.7 "Equality... type identity by pointer, then the
// concrete type's equality function"): slices, maps, and funcs are
// not comparable and so are not hashable either.
func genericallyHashable(key interface{}) bool {
	t := reflect.TypeOf(key)
	return t == nil || t.Comparable()
}

func genericHash(key interface{}, seed uint32) uintptr {
	h := fnv.New64a()
	h.Write([]byte(formatForHash(key)))
	var seedBuf [4]byte
	seedBuf[0], seedBuf[1], seedBuf[2], seedBuf[3] = byte(seed), byte(seed>>8), byte(seed>>16), byte(seed>>24)
	h.Write(seedBuf[:])
	return uintptr(h.Sum64())
}

func formatForHash(key interface{}) string {
	return fmt.Sprintf("%#v", key)
}
