package rttype

import (
	"unsafe"
)

// memHash32/64 and strHash mirror the runtime.memhash family referenced
// in spec.md §6: word-oriented hashers taking (ptr, seed) and returning
// a uintptr. They use the FNV-1a mixing function rather than AES
// instructions, since this target has no hardware crypto acceleration.
func memHash32(p unsafe.Pointer, seed uintptr) uintptr {
	v := *(*uint32)(p)
	h := uintptr(2166136261) ^ seed
	for i := 0; i < 4; i++ {
		h = (h ^ uintptr(byte(v>>(8*i)))) * 16777619
	}
	return h
}

func memHash64(p unsafe.Pointer, seed uintptr) uintptr {
	v := *(*uint64)(p)
	h := uintptr(2166136261) ^ seed
	for i := 0; i < 8; i++ {
		h = (h ^ uintptr(byte(v>>(8*i)))) * 16777619
	}
	return h
}

func strHash(p unsafe.Pointer, seed uintptr) uintptr {
	s := *(*string)(p)
	h := uintptr(2166136261) ^ seed
	for i := 0; i < len(s); i++ {
		h = (h ^ uintptr(s[i])) * 16777619
	}
	return h
}

func eq32(a, b unsafe.Pointer) bool  { return *(*uint32)(a) == *(*uint32)(b) }
func eq64(a, b unsafe.Pointer) bool  { return *(*uint64)(a) == *(*uint64)(b) }
func eqStr(a, b unsafe.Pointer) bool { return *(*string)(a) == *(*string)(b) }
func eqBool(a, b unsafe.Pointer) bool {
	return *(*bool)(a) == *(*bool)(b)
}

// Builtin type descriptors, constructed once and shared; these are the
// ones the AOT compiler would emit for the predeclared kinds. None of
// these carry FlagDirectIface: per that flag's own contract (size ==
// pointer size, value itself pointer-shaped) it belongs only to
// pointer, map, chan, and unsafe.Pointer types (see rttype.Kind and
// package iface's boxing), never to a scalar smaller than a word.
var (
	Uint32 = &Type{Size: 4, Kind: KindUint32, Align: 4, FieldAlign: 4,
		Flags: FlagReflexiveKey, EqualFn: eq32, HashFn: memHash32}
	Int32 = &Type{Size: 4, Kind: KindInt32, Align: 4, FieldAlign: 4,
		Flags: FlagReflexiveKey, EqualFn: eq32, HashFn: memHash32}
	Uint64 = &Type{Size: 8, Kind: KindUint64, Align: 8, FieldAlign: 8,
		Flags: FlagReflexiveKey, EqualFn: eq64, HashFn: memHash64}
	Int64 = &Type{Size: 8, Kind: KindInt64, Align: 8, FieldAlign: 8,
		Flags: FlagReflexiveKey, EqualFn: eq64, HashFn: memHash64}
	String = &Type{Size: 16, Kind: KindString, PtrData: 8, Align: 8, FieldAlign: 8,
		Flags: FlagReflexiveKey, EqualFn: eqStr, HashFn: strHash,
		GCData: []byte{0x01}}
	Bool = &Type{Size: 1, Kind: KindBool, Align: 1, FieldAlign: 1,
		Flags: FlagReflexiveKey, EqualFn: eqBool}
)
