package heap

import "unsafe"

// RootLocation is one explicit GC root: the address of a pointer-sized
// slot that the collector must treat as reachable and, on collection,
// rewrite in place if it points into the from-space (spec.md §4.1 step
// 3a, "runtime.gc_add_root").
type RootLocation = *unsafe.Pointer

// RootListEntry mirrors the compiler-emitted precise root-list element
// of spec.md §3.3/§4.1 step 3b and §6 "runtime.registerGCRoots": a
// declared block of memory together with the bitmap describing which
// of its words are pointers.
type RootListEntry struct {
	Data    unsafe.Pointer
	Size    uintptr
	PtrData uintptr
	GCData  []byte
}

// TaskRootsFunc is called once per collection to enumerate the roots
// contributed by every live task. Package sched registers this at
// Scheduler construction time (sched.New); it stands in for "every other live task's
// stack, conservatively scanned" (spec.md §4.1 step 3d) because tasks
// here are real goroutines whose machine stacks this library cannot
// reach — see DESIGN.md for the tradeoff. Each returned pointer is
// itself treated as an explicit root location.
type TaskRootsFunc func() []RootLocation

func (h *Heap) AddRoot(loc RootLocation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots = append(h.roots, loc)
}

func (h *Heap) RemoveRoot(loc RootLocation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, r := range h.roots {
		if r == loc {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// RegisterRootList appends a compiler-emitted precise root list,
// mirroring spec.md §6 "runtime.registerGCRoots".
func (h *Heap) RegisterRootList(list []RootListEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rootLists = append(h.rootLists, list...)
}

// SetTaskRootsFunc installs the callback package sched uses to publish
// its live tasks' roots. Only one callback is supported; a second call
// replaces the first.
func (h *Heap) SetTaskRootsFunc(fn TaskRootsFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taskRoots = fn
}
