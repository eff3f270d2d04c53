// Package lib documents micrort, a hosted runtime engine for a
// single-core, garbage-collected managed language targeting
// constrained embedded hardware.
//
// The engine itself has no entry point in this package; it is a set
// of composable packages a host program wires together:
//
//   - rttype:   static type descriptors (kind, size, pointer bitmap, method sets)
//   - heap:     two-semispace bump allocator and Cheney copying collector
//   - task:     the per-task control block and its pooled stack segments
//   - sched:    the single-dispatch-loop scheduler (Scheduler) and its
//               host-facing wrapper (Machine)
//   - rtchan:   buffered/unbuffered channels
//   - rtselect: select over multiple channel cases
//   - hmap:     the dynamically growing hash table behind Go-shaped maps
//   - iface:    interface tables, conversions, equality, hashing, boxing
//   - panicrec: defer/panic/recover on a checkpoint mechanism
//
// A program assembles these into a running engine roughly as:
//
//	h, _ := heap.New(nil)
//	s := sched.New(h, nil)
//	m := sched.NewMachine(s)
//	s.Spawn(entryPoint, nil, 0)
//	m.Run()
//	m.Drain()
//
// See SPEC_FULL.md and DESIGN.md for the full module breakdown and the
// grounding behind each package's design.
package lib
