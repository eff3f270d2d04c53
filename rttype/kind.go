// Package rttype holds the static type-descriptor model that the
// ahead-of-time compiler is assumed to emit: one Type per program type,
// living outside the managed heap, read-only, and never moving.
package rttype

// Kind is the closed enumeration of shapes a Type can describe. It is
// deliberately small and dense so it fits in the 6 bits the heap object
// header reserves for it (see heap.Header).
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUintptr
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindArray
	KindChan
	KindFunc
	KindInterface
	KindMap
	KindPtr
	KindSlice
	KindString
	KindStruct
	KindUnsafePointer

	// kindMax must stay last; the 6-bit header tag (see heap.Header)
	// has room for 64 values and this enumeration uses far fewer.
	kindMax
)

func init() {
	if kindMax > 64 {
		panic("rttype: Kind enumeration overflows the 6-bit header tag")
	}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

var kindNames = [...]string{
	KindInvalid:       "invalid",
	KindBool:          "bool",
	KindInt:           "int",
	KindInt8:          "int8",
	KindInt16:         "int16",
	KindInt32:         "int32",
	KindInt64:         "int64",
	KindUint:          "uint",
	KindUint8:         "uint8",
	KindUint16:        "uint16",
	KindUint32:        "uint32",
	KindUint64:        "uint64",
	KindUintptr:       "uintptr",
	KindFloat32:       "float32",
	KindFloat64:       "float64",
	KindComplex64:     "complex64",
	KindComplex128:    "complex128",
	KindArray:         "array",
	KindChan:          "chan",
	KindFunc:          "func",
	KindInterface:     "interface",
	KindMap:           "map",
	KindPtr:           "ptr",
	KindSlice:         "slice",
	KindString:        "string",
	KindStruct:        "struct",
	KindUnsafePointer: "unsafe.Pointer",
}

// Flag bits, carried alongside Kind in Type.Flags.
type Flag uint8

const (
	// FlagDirectIface marks types whose value (not a pointer to it) is
	// stored directly in an interface's data word: size == pointer size
	// and the value is itself pointer-shaped.
	FlagDirectIface Flag = 1 << iota

	// FlagGCProg marks types whose pointer layout is described by a
	// compressed program rather than a flat bitmap. This runtime never
	// interprets GC programs; types carrying this flag fall back to
	// conservative scanning of their ptrdata prefix (see heap.Scan).
	FlagGCProg

	// FlagReflexiveKey marks map key types whose equality function
	// never observes NaN-like irreflexivity (k == k always holds).
	FlagReflexiveKey

	// FlagHashMightPanic marks key types whose hash function can panic
	// (interfaces holding unhashable dynamic types).
	FlagHashMightPanic
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }
