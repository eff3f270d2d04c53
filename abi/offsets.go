// Package abi models `original_source/gen-offsets.c`: the fixed field
// offsets spec.md §6 says the AOT compiler bakes directly into its
// generated code (a task's panic/defer chain heads, a map iterator's
// key/value slots, and the TLS block's stack_guard/current_g), for a
// hypothetical compiler front-end to consume.
//
// These are offsets into the 32-bit target's own struct layouts, not
// into this host's Go structs — a real `*panicrec.Task` on this 64-bit
// host packs a slice header (24 bytes) where the target packs a single
// 4-byte chain-head pointer, so Offsets' values describe the target
// ABI, not `unsafe.Offsetof` on any type in this package. What the
// accompanying test does assert is that the Go types standing in for
// these structures (panicrec.Task, hmap.Iterator) preserve the same
// field *ordering* spec.md documents, which is the part of the layout
// contract a Go port can actually promise.
package abi

// Offsets are expressed in bytes, matching spec.md §6's fixed layout.
type Offsets struct {
	TaskPanicChainHead uintptr
	TaskDeferChainHead uintptr

	MapIterKey   uintptr
	MapIterValue uintptr

	TLSStackGuard uintptr
	TLSCurrentG   uintptr
}

// Get returns the documented offsets (spec.md §6 "Fixed offsets the
// compiler bakes in"). It takes no arguments and returns the same
// value every call: there is nothing host- or config-dependent about
// an ABI the compiler itself defines.
func Get() Offsets {
	return Offsets{
		TaskPanicChainHead: 0,
		TaskDeferChainHead: 4,

		MapIterKey:   0,
		MapIterValue: 4,

		TLSStackGuard: 0,
		TLSCurrentG:   4,
	}
}
