package iface

import (
	"testing"

	"github.com/coldboot/micrort/rttype"
)

func namePtr(s string) *string { return &s }

func methodOf(name string, fn uintptr) rttype.Method {
	return rttype.Method{Name: namePtr(name), FuncPtr: fn}
}

func TestGetItabMatchesByName(t *testing.T) {
	concrete := &rttype.Type{
		Kind: rttype.KindStruct,
		Uncommon: &rttype.Uncommon{
			Name: "Widget",
			Methods: []rttype.Method{
				methodOf("Read", 0x1000),
				methodOf("Write", 0x2000),
			},
		},
	}
	inter := &rttype.InterfaceType{
		Type: rttype.Type{Kind: rttype.KindInterface},
		Methods: []rttype.Method{
			methodOf("Read", 0),
			methodOf("Write", 0),
		},
	}

	it, ok := GetItab(inter, concrete, false)
	if !ok {
		t.Fatalf("GetItab: expected ok=true")
	}
	if len(it.Fns) != 2 || it.Fns[0] != 0x1000 || it.Fns[1] != 0x2000 {
		t.Fatalf("itab.Fns = %v, want [0x1000 0x2000]", it.Fns)
	}
}

func TestGetItabMissingMethodFails(t *testing.T) {
	concrete := &rttype.Type{
		Kind: rttype.KindStruct,
		Uncommon: &rttype.Uncommon{
			Name:    "Widget",
			Methods: []rttype.Method{methodOf("Read", 0x1000)},
		},
	}
	inter := &rttype.InterfaceType{
		Type:    rttype.Type{Kind: rttype.KindInterface},
		Methods: []rttype.Method{methodOf("Read", 0), methodOf("Write", 0)},
	}

	if _, ok := GetItab(inter, concrete, true); ok {
		t.Fatalf("GetItab(canFail=true): expected ok=false for a type missing Write")
	}
}

func TestGetItabMissingMethodPanics(t *testing.T) {
	concrete := &rttype.Type{Kind: rttype.KindStruct, Uncommon: &rttype.Uncommon{Name: "Empty"}}
	inter := &rttype.InterfaceType{
		Type:    rttype.Type{Kind: rttype.KindInterface},
		Methods: []rttype.Method{methodOf("Read", 0)},
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("GetItab(canFail=false): expected a panic for a non-implementing type")
		}
	}()
	GetItab(inter, concrete, false)
}

func TestGetItabCaches(t *testing.T) {
	concrete := &rttype.Type{
		Kind: rttype.KindStruct,
		Uncommon: &rttype.Uncommon{
			Name:    "Cached",
			Methods: []rttype.Method{methodOf("Do", 0x42)},
		},
	}
	inter := &rttype.InterfaceType{
		Type:    rttype.Type{Kind: rttype.KindInterface},
		Methods: []rttype.Method{methodOf("Do", 0)},
	}

	a, _ := GetItab(inter, concrete, false)
	b, _ := GetItab(inter, concrete, false)
	if a != b {
		t.Fatalf("GetItab did not return the cached *Itab on the second call")
	}
}
