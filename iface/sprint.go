package iface

import (
	"fmt"
	"unsafe"

	"github.com/kylelemons/godebug/pretty"

	"github.com/coldboot/micrort/rttype"
)

// ramChecker is satisfied by *heap.Heap; kept as a narrow interface here
// so this package does not import heap just to bounds-check a pointer
// (package heap already imports rttype, and iface sits above rttype —
// importing heap back in would be a cycle).
type ramChecker interface {
	InRAMWindow(addr uintptr) bool
}

// Sprint renders an Eface for structured, non-panic-path debugging —
// tests and log lines, not the fatal-panic printer — by decoding the
// value per its Kind and handing the result to
// github.com/kylelemons/godebug/pretty, the structural-diff library
// SPEC_FULL.md's DOMAIN STACK table assigns to this job. This path is
// allowed to allocate and to follow pointers unconditionally: callers
// use it only when the heap is known-good.
func Sprint(e Eface) string {
	if e.Type == nil {
		return "<nil>"
	}
	return pretty.Sprint(decode(e.Type, e.Data))
}

// decode reifies the bytes addressed by data (or, for direct-iface
// types, data itself) into a plain Go value pretty.Sprint can walk.
func decode(t *rttype.Type, data uintptr) interface{} {
	if t.Flags.Has(rttype.FlagDirectIface) {
		return decodeDirect(t, data)
	}
	if data == 0 {
		return nil
	}
	p := unsafe.Pointer(data)
	switch t.Kind {
	case rttype.KindBool:
		return *(*bool)(p)
	case rttype.KindInt:
		return *(*int)(p)
	case rttype.KindInt8:
		return *(*int8)(p)
	case rttype.KindInt16:
		return *(*int16)(p)
	case rttype.KindInt32:
		return *(*int32)(p)
	case rttype.KindInt64:
		return *(*int64)(p)
	case rttype.KindUint:
		return *(*uint)(p)
	case rttype.KindUint8:
		return *(*uint8)(p)
	case rttype.KindUint16:
		return *(*uint16)(p)
	case rttype.KindUint32:
		return *(*uint32)(p)
	case rttype.KindUint64:
		return *(*uint64)(p)
	case rttype.KindUintptr:
		return *(*uintptr)(p)
	case rttype.KindFloat32:
		return *(*float32)(p)
	case rttype.KindFloat64:
		return *(*float64)(p)
	case rttype.KindString:
		return *(*string)(p)
	default:
		return fmt.Sprintf("(%s at %#x)", t.Kind, data)
	}
}

func decodeDirect(t *rttype.Type, data uintptr) interface{} {
	switch t.Kind {
	case rttype.KindPtr, rttype.KindUnsafePointer:
		return fmt.Sprintf("(%s %#x)", t.Kind, data)
	case rttype.KindChan, rttype.KindMap:
		return fmt.Sprintf("(%s %#x)", t.Kind, data)
	default:
		return fmt.Sprintf("(%s %#x)", t.Kind, data)
	}
}

// SprintPanic is the panic-path counterpart of Sprint: the hand-rolled,
// non-allocating formatter spec.md §4.8's fatal-panic report calls
// ("print the panic argument using type-kind-directed formatting").
// It never follows a pointer that InRAMWindow rejects and never calls
// into pretty (which allocates and can itself panic on a corrupt
// value) — the runtime may be mid-collapse when this runs, per spec.md
// §4.7's "used in panic paths that may run with partially corrupt
// state."
func SprintPanic(e Eface, ram ramChecker) string {
	if e.Type == nil {
		return "nil"
	}
	t := e.Type
	if t.Flags.Has(rttype.FlagDirectIface) {
		return fmt.Sprintf("(%s %#x)", t.Kind, e.Data)
	}
	switch t.Kind {
	case rttype.KindString:
		if !ram.InRAMWindow(e.Data) {
			return fmt.Sprintf("(string at %#x, out of range)", e.Data)
		}
		return fmt.Sprintf("%q", *(*string)(unsafe.Pointer(e.Data)))
	case rttype.KindBool, rttype.KindInt, rttype.KindInt8, rttype.KindInt16,
		rttype.KindInt32, rttype.KindInt64, rttype.KindUint, rttype.KindUint8,
		rttype.KindUint16, rttype.KindUint32, rttype.KindUint64, rttype.KindUintptr:
		if !ram.InRAMWindow(e.Data) {
			return fmt.Sprintf("(%s at %#x, out of range)", t.Kind, e.Data)
		}
		return fmt.Sprintf("%v", decode(t, e.Data))
	default:
		return fmt.Sprintf("(%s at %#x)", t.Kind, e.Data)
	}
}
