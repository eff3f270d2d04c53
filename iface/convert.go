package iface

import (
	"fmt"

	"github.com/coldboot/micrort/rttype"
)

// E2I implements spec.md §4.7's runtime.assertE2I: convert an empty
// interface to a non-empty one, panicking if the dynamic type doesn't
// implement inter.
func E2I(inter *rttype.InterfaceType, e Eface) Iface {
	if e.Type == nil {
		panic("interface conversion: interface is nil, not " + inter.String())
	}
	it, ok := GetItab(inter, e.Type, false)
	if !ok {
		panic(fmt.Sprintf("interface conversion: %s is not %s", e.Type.String(), inter.String()))
	}
	return Iface{Tab: it, Data: e.Data}
}

// E2I2 is the ", ok" form of E2I (spec.md §4.7 "ifaceE2I2"): returns
// the zero Iface and ok=false instead of panicking on mismatch.
func E2I2(inter *rttype.InterfaceType, e Eface) (Iface, bool) {
	if e.Type == nil {
		return Iface{}, false
	}
	it, ok := GetItab(inter, e.Type, true)
	if !ok {
		return Iface{}, false
	}
	return Iface{Tab: it, Data: e.Data}, true
}

// I2I converts between two non-empty interfaces (spec.md §4.7's
// "ifaceI2I2"), re-resolving against the underlying concrete type.
func I2I(inter *rttype.InterfaceType, i Iface) Iface {
	if i.Tab == nil {
		panic("interface conversion: interface is nil, not " + inter.String())
	}
	it, ok := GetItab(inter, i.Tab.Type, false)
	if !ok {
		panic(fmt.Sprintf("interface conversion: %s is not %s", i.Tab.Type.String(), inter.String()))
	}
	return Iface{Tab: it, Data: i.Data}
}

func I2I2(inter *rttype.InterfaceType, i Iface) (Iface, bool) {
	if i.Tab == nil {
		return Iface{}, false
	}
	it, ok := GetItab(inter, i.Tab.Type, true)
	if !ok {
		return Iface{}, false
	}
	return Iface{Tab: it, Data: i.Data}, true
}

// AssertE2T implements the direct (non-interface) type assertion
// "x.(ConcreteType)" of spec.md §4.7: exact concrete-type-pointer
// match, panicking on mismatch. ok variants return the zero value
// instead, per "the language requires a zero value on failed type
// assertion".
func AssertE2T(want *rttype.Type, e Eface) uintptr {
	if e.Type != want {
		panic(fmt.Sprintf("interface conversion: interface is %s, not %s", typeNameOrNil(e.Type), want.String()))
	}
	return e.Data
}

func AssertE2T2(want *rttype.Type, e Eface) (uintptr, bool) {
	if e.Type != want {
		return 0, false
	}
	return e.Data, true
}

func typeNameOrNil(t *rttype.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
