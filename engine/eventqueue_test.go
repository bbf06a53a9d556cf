package engine

import "testing"

func TestEventQueuePushPopOrder(t *testing.T) {
	q := NewEventQueue([32]byte{1}, 4)

	for i := 1; i <= 3; i++ {
		seq, err := q.Push(Event{Kind: EventFill, Price: uint64(i)})
		if err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if seq != uint64(i) {
			t.Errorf("push %d seq = %d, want %d", i, seq, i)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}
	if q.RemainingCapacity() != 1 {
		t.Fatalf("RemainingCapacity() = %d, want 1", q.RemainingCapacity())
	}

	for i := 1; i <= 3; i++ {
		ev, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", i)
		}
		if ev.Price != uint64(i) {
			t.Errorf("pop %d price = %d, want %d (fifo order)", i, ev.Price, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected Pop on empty queue to return false")
	}
}

func TestEventQueueFullRejectsPush(t *testing.T) {
	q := NewEventQueue([32]byte{1}, 2)
	if _, err := q.Push(Event{Kind: EventOut}); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if _, err := q.Push(Event{Kind: EventOut}); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if _, err := q.Push(Event{Kind: EventOut}); err != ErrEventQueueFull {
		t.Fatalf("push 3 err = %v, want ErrEventQueueFull", err)
	}
	if q.Len() != 2 {
		t.Errorf("Len() after rejected push = %d, want 2 (unchanged)", q.Len())
	}
}

func TestEventQueuePeekAndPeekAt(t *testing.T) {
	q := NewEventQueue([32]byte{1}, 4)
	for i := 1; i <= 3; i++ {
		if _, err := q.Push(Event{Price: uint64(i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	head, ok := q.Peek()
	if !ok || head.Price != 1 {
		t.Errorf("Peek() = %+v, ok=%v, want price 1", head, ok)
	}

	mid, ok := q.PeekAt(1)
	if !ok || mid.Price != 2 {
		t.Errorf("PeekAt(1) = %+v, ok=%v, want price 2", mid, ok)
	}

	if _, ok := q.PeekAt(3); ok {
		t.Error("PeekAt(3) should be out of range for 3 live events")
	}
	if _, ok := q.PeekAt(-1); ok {
		t.Error("PeekAt(-1) should be out of range")
	}

	// Peeking must not mutate the queue.
	if q.Len() != 3 {
		t.Errorf("Len() after peeks = %d, want 3", q.Len())
	}
}

func TestEventQueueWrapsAroundRing(t *testing.T) {
	q := NewEventQueue([32]byte{1}, 3)
	for i := 1; i <= 3; i++ {
		if _, err := q.Push(Event{Price: uint64(i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	// Drain two, then push two more so the internal head/tail wrap past
	// the end of the backing slice.
	if _, ok := q.Pop(); !ok {
		t.Fatal("pop 1 failed")
	}
	if _, ok := q.Pop(); !ok {
		t.Fatal("pop 2 failed")
	}
	if _, err := q.Push(Event{Price: 4}); err != nil {
		t.Fatalf("push 4: %v", err)
	}
	if _, err := q.Push(Event{Price: 5}); err != nil {
		t.Fatalf("push 5: %v", err)
	}

	want := []uint64{3, 4, 5}
	for _, w := range want {
		ev, ok := q.Pop()
		if !ok {
			t.Fatalf("expected an event with price %d, queue empty", w)
		}
		if ev.Price != w {
			t.Errorf("pop order mismatch: got price %d, want %d", ev.Price, w)
		}
	}
}

func TestEventQueueSeqNumMonotonic(t *testing.T) {
	q := NewEventQueue([32]byte{1}, 8)
	if q.SeqNum() != 0 {
		t.Fatalf("fresh queue SeqNum() = %d, want 0", q.SeqNum())
	}
	for i := 0; i < 5; i++ {
		if _, err := q.Push(Event{}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if _, ok := q.Pop(); !ok {
		t.Fatal("pop failed")
	}
	// SeqNum tracks the highest ever assigned, independent of draining.
	if q.SeqNum() != 5 {
		t.Errorf("SeqNum() = %d, want 5", q.SeqNum())
	}
}
