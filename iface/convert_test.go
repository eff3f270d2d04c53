package iface

import (
	"testing"

	"github.com/coldboot/micrort/rttype"
)

func TestE2IRoundTrip(t *testing.T) {
	concrete := &rttype.Type{
		Kind:     rttype.KindStruct,
		Uncommon: &rttype.Uncommon{Name: "Stringer", Methods: []rttype.Method{methodOf("String", 0x99)}},
	}
	inter := &rttype.InterfaceType{
		Type:    rttype.Type{Kind: rttype.KindInterface},
		Methods: []rttype.Method{methodOf("String", 0)},
	}

	e := Eface{Type: concrete, Data: 0xABCD}
	i := E2I(inter, e)
	if i.Tab.Type != concrete || i.Data != 0xABCD {
		t.Fatalf("E2I: got %+v", i)
	}

	back, ok := E2I2(inter, e)
	if !ok || back.Data != 0xABCD {
		t.Fatalf("E2I2: got %+v, %v", back, ok)
	}
}

func TestE2I2FailsOnMismatch(t *testing.T) {
	concrete := &rttype.Type{Kind: rttype.KindStruct, Uncommon: &rttype.Uncommon{Name: "Plain"}}
	inter := &rttype.InterfaceType{
		Type:    rttype.Type{Kind: rttype.KindInterface},
		Methods: []rttype.Method{methodOf("String", 0)},
	}
	e := Eface{Type: concrete, Data: 1}
	if _, ok := E2I2(inter, e); ok {
		t.Fatalf("E2I2: expected ok=false for a non-implementing type")
	}
}

func TestE2IPanicsOnNilInterface(t *testing.T) {
	inter := &rttype.InterfaceType{Type: rttype.Type{Kind: rttype.KindInterface}}
	defer func() {
		if recover() == nil {
			t.Fatalf("E2I: expected a panic converting a nil eface")
		}
	}()
	E2I(inter, Eface{})
}

func TestAssertE2T(t *testing.T) {
	if got := AssertE2T(rttype.Uint32, Eface{Type: rttype.Uint32, Data: 7}); got != 7 {
		t.Fatalf("AssertE2T = %d, want 7", got)
	}
	if _, ok := AssertE2T2(rttype.Uint32, Eface{Type: rttype.String, Data: 7}); ok {
		t.Fatalf("AssertE2T2: expected ok=false on a type mismatch")
	}
}

func TestAssertE2TPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("AssertE2T: expected a panic on a type mismatch")
		}
	}()
	AssertE2T(rttype.Uint32, Eface{Type: rttype.String, Data: 0})
}
