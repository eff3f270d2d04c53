// Package task implements the task descriptor, stack pool, and
// per-task context switch.
package task

import (
	"fmt"
	"sync"

	"github.com/coldboot/micrort/host"
)

// StackGuard is the size of the low-address guard area reserved at the
// bottom of every stack segment.
const StackGuard = 256

// DefaultSizeClasses are the three pooled stack sizes.
var DefaultSizeClasses = [3]int{8 << 10, 32 << 10, 64 << 10}

// DefaultPerClassCap bounds how many freed segments each size class
// keeps before releasing the rest back to the host.
const DefaultPerClassCap = 32

// Stack is one pooled stack segment. Its arena is the full host-backed
// region including the guard area; SP-usable space begins StackGuard
// bytes above the arena's base (the address Base returns), matching the
// TLS layout where stack_guard is read unconditionally by the
// split-stack prologue.
type Stack struct {
	arena *host.Arena
	class int // index into StackPool.classes
}

// Base returns the address of the first usable byte above the guard
// area.
func (s *Stack) Base() uintptr { return s.arena.BaseAddr() + StackGuard }

// Hi returns the address one past the end of the stack (stacks grow
// down from here, matching the target ABI's register-context
// conventions).
func (s *Stack) Hi() uintptr { return s.arena.BaseAddr() + uintptr(s.arena.Len()) }

// Size returns the usable stack size (excluding the guard area).
func (s *Stack) Size() int { return s.arena.Len() - StackGuard }

// StackPool hands out stack segments rounded up to the smallest
// fitting size class, reusing freed segments the way a page-pool
// allocator reuses page-multiple buffers: a free list per size class,
// a set of outstanding segments for leak detection, and a running
// creation count for diagnostics. Get pops the free list and falls
// back to an aligned host allocation on miss.
type StackPool struct {
	mu sync.Mutex

	classes    [3]int
	perClassCp int
	free       [3][]*Stack
	outstanding map[*Stack]bool
	created    int
}

// NewStackPool constructs a pool with the default size classes and
// per-class cap. classes, if non-nil, overrides DefaultSizeClasses and
// must be strictly increasing.
func NewStackPool(classes *[3]int, perClassCap int) *StackPool {
	p := &StackPool{
		perClassCp:  perClassCap,
		outstanding: make(map[*Stack]bool),
	}
	if classes != nil {
		p.classes = *classes
	} else {
		p.classes = DefaultSizeClasses
	}
	if p.perClassCp <= 0 {
		p.perClassCp = DefaultPerClassCap
	}
	return p
}

// classFor returns the smallest size class whose usable size (class
// size minus the guard area) is at least want, or -1 if want exceeds
// every class.
func (p *StackPool) classFor(want int) int {
	for i, sz := range p.classes {
		if sz-StackGuard >= want {
			return i
		}
	}
	return -1
}

// Get returns a stack segment with at least minUsable bytes above the
// guard area, popping a free segment of the right class if one
// exists, else mapping a fresh one from the host.
func (p *StackPool) Get(minUsable int) (*Stack, error) {
	class := p.classFor(minUsable)
	if class < 0 {
		return nil, fmt.Errorf("task: no stack size class fits %d bytes", minUsable)
	}

	p.mu.Lock()
	if n := len(p.free[class]); n > 0 {
		s := p.free[class][n-1]
		p.free[class] = p.free[class][:n-1]
		p.outstanding[s] = true
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	a, err := host.NewArena(p.classes[class])
	if err != nil {
		return nil, fmt.Errorf("task: allocate stack class %d: %w", class, err)
	}
	s := &Stack{arena: a, class: class}

	p.mu.Lock()
	p.created++
	p.outstanding[s] = true
	p.mu.Unlock()
	return s, nil
}

// Put returns a stack segment to the pool: pushed onto the free list
// when its class is under the per-class cap, else released back to
// the host.
func (p *StackPool) Put(s *Stack) {
	if s == nil {
		return
	}
	p.mu.Lock()
	if !p.outstanding[s] {
		p.mu.Unlock()
		return
	}
	delete(p.outstanding, s)

	if len(p.free[s.class]) < p.perClassCp {
		p.free[s.class] = append(p.free[s.class], s)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	s.arena.Close()
}

// Close releases every arena the pool currently owns, free or
// outstanding. Meant for shutdown/test teardown.
func (p *StackPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for c := range p.free {
		for _, s := range p.free[c] {
			if err := s.arena.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		p.free[c] = nil
	}
	for s := range p.outstanding {
		if err := s.arena.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.outstanding, s)
	}
	return firstErr
}

// String reports pool occupancy in a compact diagnostic format.
func (p *StackPool) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("created: %d\noutstanding: %d\nfree: %v\n",
		p.created, len(p.outstanding), [3]int{len(p.free[0]), len(p.free[1]), len(p.free[2])})
}
