package rtchan_test

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/coldboot/micrort/rtchan"
	"github.com/coldboot/micrort/sched"
	"github.com/coldboot/micrort/task"
)

// TestStressManyPipelinesPreserveFIFO runs many independent
// producer/consumer pipelines concurrently, each on its own
// *sched.Scheduler (the single-threaded-cooperative model holds per
// scheduler, not across them), and checks the channel-FIFO invariant
// on every one of them: for any buffered channel, the sequence of
// values received equals the sequence of values sent, in order.
// errgroup fans the pipelines out and collects the first error.
func TestStressManyPipelinesPreserveFIFO(t *testing.T) {
	const pipelines = 64
	const perPipeline = 200

	var eg errgroup.Group
	for p := 0; p < pipelines; p++ {
		p := p
		eg.Go(func() error {
			s := sched.New(nil, nil)
			c := rtchan.Make(s, 8)

			var got []int
			spawnSelf(s, func(self *task.G) {
				for i := 0; i < perPipeline; i++ {
					c.Send(self, p*perPipeline+i)
				}
				c.Close()
			})
			spawnSelf(s, func(self *task.G) {
				for {
					v, ok := c.Recv(self)
					if !ok {
						return
					}
					got = append(got, v.(int))
				}
			})

			if err := s.Run(); err != nil {
				return fmt.Errorf("pipeline %d: Run: %w", p, err)
			}
			if len(got) != perPipeline {
				return fmt.Errorf("pipeline %d: received %d values, want %d", p, len(got), perPipeline)
			}
			for i, v := range got {
				if v != p*perPipeline+i {
					return fmt.Errorf("pipeline %d: got[%d] = %d, want %d (FIFO violation)", p, i, v, p*perPipeline+i)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}

// TestStressUnbufferedRendezvousManyProducers checks the unbuffered
// rendezvous case under the same concurrent fan-out: many schedulers,
// each with one unbuffered producer/consumer pair, run at once.
func TestStressUnbufferedRendezvousManyProducers(t *testing.T) {
	const n = 100

	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			s := sched.New(nil, nil)
			c := rtchan.Make(s, 0)

			var received interface{}
			var ok bool
			spawnSelf(s, func(self *task.G) {
				c.Send(self, i)
			})
			spawnSelf(s, func(self *task.G) {
				received, ok = c.Recv(self)
			})

			if err := s.Run(); err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			if !ok || received != i {
				return fmt.Errorf("run %d: received=%v ok=%v, want %d/true", i, received, ok, i)
			}
			if c.Len() != 0 {
				return fmt.Errorf("run %d: Len() = %d, want 0", i, c.Len())
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}
