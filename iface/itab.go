// Package iface implements the interface subsystem: itab construction
// by structural method matching (cached), E<->I/I<->I conversions and
// type assertions, type-directed equality and hashing, and
// small-scalar boxing.
//
// A real compiled program's itab stores the concrete method's actual
// function pointers and the compiler emits a direct
// loadptr(itab+4*(k+1)) to call method k. This host has no AOT
// compiler generating that machine code, so Itab.Fns holds opaque
// uintptr identifiers one level removed from a callable any caller
// here can invoke directly (see DESIGN.md) — what's preserved exactly
// is structural matching by name (identity-then-bytes, per
// rttype.Type.Method), the cache, and the fail/panic contract.
package iface

import (
	"fmt"
	"sync"

	"github.com/coldboot/micrort/rttype"
)

// Eface is the empty interface representation.
type Eface struct {
	Type *rttype.Type
	Data uintptr
}

// Iface is the non-empty interface representation. Tab is "the public
// itab pointer... actually &methodsArray[0]"; here it is simply the
// *Itab since this host has no compiler-visible memory layout to fake.
type Iface struct {
	Tab  *Itab
	Data uintptr
}

// Itab is the per-(interface,concrete) vtable: the concrete type
// followed by resolved method entries in interface method order.
type Itab struct {
	Inter *rttype.InterfaceType
	Type  *rttype.Type
	Fns   []uintptr // Fns[i] is interface method i's FuncPtr on Type
}

type itabKey struct {
	inter *rttype.InterfaceType
	typ   *rttype.Type
}

// cacheSize is the small itab cache's slot count.
const cacheSize = 32

type itabCache struct {
	mu      sync.Mutex
	entries [cacheSize]*Itab
	next    int
}

var cache itabCache

func (c *itabCache) lookup(inter *rttype.InterfaceType, typ *rttype.Type) *Itab {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.entries {
		if it != nil && it.Inter == inter && it.Type == typ {
			return it
		}
	}
	return nil
}

func (c *itabCache) insert(it *Itab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.next] = it
	c.next = (c.next + 1) % cacheSize
}

// GetItab constructs (or returns the cached) itab for (inter, typ),
// mirroring getitab(interfaceType, concreteType, canFail). When
// canFail is false and typ does not implement inter, GetItab raises an
// ordinary Go panic (a caller-visible, recoverable panic, not a fatal
// exit, since a failed type assertion is always a recoverable
// condition).
func GetItab(inter *rttype.InterfaceType, typ *rttype.Type, canFail bool) (*Itab, bool) {
	if it := cache.lookup(inter, typ); it != nil {
		return it, true
	}

	fns := make([]uintptr, len(inter.Methods))
	for i, im := range inter.Methods {
		m, ok := matchMethod(typ, im)
		if !ok {
			if canFail {
				return nil, false
			}
			panic(fmt.Sprintf("interface conversion: %s is not %s: missing method %s",
				typ.String(), inter.String(), methodName(im)))
		}
		fns[i] = m.FuncPtr
	}

	it := &Itab{Inter: inter, Type: typ, Fns: fns}
	cache.insert(it)
	return it, true
}

// matchMethod looks up one interface method on the concrete type by
// name, through rttype.Type.Method, which scans the concrete type's
// method list and compares names by their string bytes.
func matchMethod(typ *rttype.Type, im rttype.Method) (rttype.Method, bool) {
	return typ.Method(methodName(im))
}

func methodName(m rttype.Method) string {
	if m.Name == nil {
		return ""
	}
	return *m.Name
}
