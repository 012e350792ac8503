package queue

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPushPopOrder(t *testing.T) {
	// A ring of capacity 4 holds at most 3 entries: the write index
	// can never catch up with the read index, so one slot always goes
	// unused as the full/empty disambiguator.
	r := New[int](4)
	for i := 0; i < 3; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
	}
	if r.Push(99) {
		t.Fatalf("push into full ring should fail")
	}
	for i := 0; i < 3; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("pop %d: got %v, ok=%v", i, v, ok)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatalf("pop from empty ring should fail")
	}
}

func TestArbitraryCapacity(t *testing.T) {
	r := New[int](3)
	if r.Cap() != 3 {
		t.Fatalf("expected capacity 3, got %d", r.Cap())
	}
	for round := 0; round < 10; round++ {
		if !r.Push(round) {
			t.Fatalf("round %d: push failed", round)
		}
		v, ok := r.Pop()
		if !ok || v != round {
			t.Fatalf("round %d: got %v, ok=%v", round, v, ok)
		}
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const n = 100000
	r := New[int](256)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Push(i) {
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			var v int
			var ok bool
			for !ok {
				v, ok = r.Pop()
			}
			if v != i {
				t.Errorf("expected %d, got %d", i, v)
			}
		}
	}()

	wg.Wait()
}

func TestPopWaitStops(t *testing.T) {
	r := New[int](2)
	var stop uint32
	done := make(chan struct{})
	go func() {
		_, ok := r.PopWait(&stop)
		if ok {
			t.Errorf("expected PopWait to return false after stop")
		}
		close(done)
	}()
	atomic.StoreUint32(&stop, 1)
	<-done
}
