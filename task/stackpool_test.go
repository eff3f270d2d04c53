package task

import "testing"

func TestStackPoolRoundsUpToSizeClass(t *testing.T) {
	p := NewStackPool(nil, 4)
	defer p.Close()

	s, err := p.Get(4 << 10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got, want := s.Size(), DefaultSizeClasses[0]-StackGuard; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	big, err := p.Get(40 << 10)
	if err != nil {
		t.Fatalf("Get(40KB): %v", err)
	}
	if got, want := big.Size(), DefaultSizeClasses[2]-StackGuard; got != want {
		t.Fatalf("Size() = %d, want %d (should round up to the 64KB class)", got, want)
	}

	p.Put(s)
	p.Put(big)
}

func TestStackPoolReusesFreedSegment(t *testing.T) {
	p := NewStackPool(nil, 4)
	defer p.Close()

	s1, _ := p.Get(1 << 10)
	base1 := s1.Base()
	p.Put(s1)

	s2, _ := p.Get(1 << 10)
	if s2.Base() != base1 {
		t.Fatalf("expected a freed segment to be reused; got a fresh allocation")
	}
}

func TestStackPoolRejectsOversizedRequest(t *testing.T) {
	p := NewStackPool(nil, 4)
	defer p.Close()

	if _, err := p.Get(1 << 20); err == nil {
		t.Fatalf("expected an error for a request larger than every size class")
	}
}

func TestStackPoolPerClassCapReleasesExcess(t *testing.T) {
	classes := [3]int{4096, 8192, 16384}
	p := NewStackPool(&classes, 1)
	defer p.Close()

	a, _ := p.Get(100)
	b, _ := p.Get(100)
	p.Put(a)
	p.Put(b) // exceeds cap of 1; should be released to the host, not queued

	if got := len(p.free[0]); got != 1 {
		t.Fatalf("free list length = %d, want 1 (capped)", got)
	}
}
