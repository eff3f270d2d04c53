package host

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Arena is a fixed-size, page-backed region of memory obtained from the
// host allocator — the Go-host stand-in for the target's RAM window
// and its malloc/free (spec.md §1, §3.3). It never grows: the heap
// package carves its two semi-spaces out of arenas allocated once at
// startup, and maps one separate arena per large object when that
// object is allocated.
type Arena struct {
	mem  []byte
	base uintptr
}

// NewArena maps size bytes of anonymous, read-write memory. size is
// rounded up to the host page size by the kernel; callers that care
// about exact sizing should pass an already page-aligned size.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("host: arena size must be positive, got %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("host: mmap %d bytes: %w", size, err)
	}
	return &Arena{
		mem:  mem,
		base: uintptr(unsafe.Pointer(&mem[0])),
	}, nil
}

// Close releases the arena back to the host.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	return err
}

// Base returns the arena's start address as an unsafe.Pointer.
func (a *Arena) Base() unsafe.Pointer { return unsafe.Pointer(&a.mem[0]) }

// BaseAddr returns the arena's start address as an integer, used for
// the RAM-window bounds check in the GC's pointer filters.
func (a *Arena) BaseAddr() uintptr { return a.base }

// Len returns the arena's size in bytes.
func (a *Arena) Len() int { return len(a.mem) }

// Contains reports whether addr falls within [base, base+len).
func (a *Arena) Contains(addr uintptr) bool {
	return addr >= a.base && addr < a.base+uintptr(len(a.mem))
}

// Poison overwrites the arena with a recognizable byte pattern. Used in
// debug builds to simulate the deferred cache-invalidation pass of
// spec.md §4.1 making stale from-space data visibly dead, and to catch
// use-after-collection bugs in tests.
func (a *Arena) Poison() {
	for i := range a.mem {
		a.mem[i] = 0xAA
	}
}

// PoisonRange poisons [off, off+n) within the arena, used by the
// chunked deferred-invalidation drain (spec.md §4.1 step 5).
func (a *Arena) PoisonRange(off, n int) {
	end := off + n
	if end > len(a.mem) {
		end = len(a.mem)
	}
	for i := off; i < end; i++ {
		a.mem[i] = 0xAA
	}
}
