package rtchan_test

import (
	"testing"

	"github.com/coldboot/micrort/rtchan"
	"github.com/coldboot/micrort/sched"
	"github.com/coldboot/micrort/task"
)

// taskOf resolves the *task.G for the currently running task from
// inside its own entry function, since rtchan's blocking calls need
// the caller's own G to park it.
type selfArg struct {
	g    *task.G
	cont func(self *task.G)
}

func spawnSelf(s *sched.Scheduler, body func(self *task.G)) *task.G {
	g, _ := s.Spawn(func(arg interface{}) {
		a := arg.(*selfArg)
		a.cont(a.g)
	}, &selfArg{cont: body}, 0)
	g.EntryArg.(*selfArg).g = g
	return g
}

func TestUnbufferedRendezvous(t *testing.T) {
	s := sched.New(nil, nil)
	c := rtchan.Make(s, 0)

	var received interface{}
	var recvOK bool

	spawnSelf(s, func(self *task.G) {
		c.Send(self, 42)
	})
	spawnSelf(s, func(self *task.G) {
		received, recvOK = c.Recv(self)
	})

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !recvOK || received != 42 {
		t.Fatalf("received=%v ok=%v, want 42/true", received, recvOK)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for an unbuffered channel", c.Len())
	}
}

func TestBufferedCloseDrainsRemainingValues(t *testing.T) {
	s := sched.New(nil, nil)
	c := rtchan.Make(s, 2)

	var got []interface{}
	var oks []bool

	spawnSelf(s, func(self *task.G) {
		c.Send(self, "a")
		c.Send(self, "b")
		c.Close()
	})
	spawnSelf(s, func(self *task.G) {
		for i := 0; i < 3; i++ {
			v, ok := c.Recv(self)
			got = append(got, v)
			oks = append(oks, ok)
		}
	})

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != nil {
		t.Fatalf("got=%v, want [a b <nil>]", got)
	}
	if oks[0] != true || oks[1] != true || oks[2] != false {
		t.Fatalf("oks=%v, want [true true false]", oks)
	}
}

func TestSendOnClosedChannelPanics(t *testing.T) {
	s := sched.New(nil, nil)
	c := rtchan.Make(s, 1)
	c.Close()

	var recovered interface{}
	spawnSelf(s, func(self *task.G) {
		completed := self.Checkpoint(func() {
			self.Defer(func() {
				v, _ := self.Recover()
				recovered = v
			})
			c.Send(self, 1)
		})
		_ = completed
	})

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if recovered != "send on closed channel" {
		t.Fatalf("recovered = %v, want %q", recovered, "send on closed channel")
	}
}
