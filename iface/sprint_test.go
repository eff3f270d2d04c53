package iface

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/coldboot/micrort/rttype"
)

func TestSprintScalar(t *testing.T) {
	h := newTestHeap(t)
	v := [1]uint64{42}
	e := ConvT2E(h, rttype.Uint64, unsafe.Pointer(&v[0]))
	if got := Sprint(e); got != "42" {
		t.Fatalf("Sprint(uint64 42) = %q, want %q", got, "42")
	}
}

func TestSprintString(t *testing.T) {
	h := newTestHeap(t)
	e := ConvTstring(h, "hello")
	if got := Sprint(e); got != `"hello"` {
		t.Fatalf("Sprint(string) = %q, want %q", got, `"hello"`)
	}
}

func TestSprintNilEface(t *testing.T) {
	if got := Sprint(Eface{}); got != "<nil>" {
		t.Fatalf("Sprint(nil Eface) = %q, want <nil>", got)
	}
}

func TestSprintDirectIfacePointer(t *testing.T) {
	h := newTestHeap(t)
	ptrType := &rttype.Type{
		Size: unsafe.Sizeof(uintptr(0)), Kind: rttype.KindPtr,
		Flags: rttype.FlagDirectIface,
	}
	target := new(uint32)
	e := ConvT2E(h, ptrType, unsafe.Pointer(&target))
	if got := Sprint(e); !strings.Contains(got, "ptr") {
		t.Fatalf("Sprint(direct ptr) = %q, want it to mention the kind", got)
	}
}

// fakeRAM lets SprintPanic's bounds-check be exercised without standing
// up a real *heap.Heap.
type fakeRAM struct{ ok bool }

func (f fakeRAM) InRAMWindow(uintptr) bool { return f.ok }

func TestSprintPanicRejectsOutOfRangePointer(t *testing.T) {
	e := Eface{Type: rttype.String, Data: 0xdeadbeef}
	got := SprintPanic(e, fakeRAM{ok: false})
	if !strings.Contains(got, "out of range") {
		t.Fatalf("SprintPanic on an out-of-window pointer = %q, want it to say so", got)
	}
}

func TestSprintPanicFormatsString(t *testing.T) {
	h := newTestHeap(t)
	e := ConvTstring(h, "oops")
	got := SprintPanic(e, h)
	if got != `"oops"` {
		t.Fatalf("SprintPanic(string) = %q, want %q", got, `"oops"`)
	}
}

func TestSprintPanicFormatsNil(t *testing.T) {
	if got := SprintPanic(Eface{}, fakeRAM{ok: true}); got != "nil" {
		t.Fatalf("SprintPanic(nil) = %q, want nil", got)
	}
}
