package service

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFires(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("k1", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	// A fired timer removes itself.
	deadline := time.Now().Add(time.Second)
	for s.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pending = %d, want 0 after firing", s.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("k1", 20*time.Millisecond, func() { fired.Add(1) })

	if !s.Cancel("k1") {
		t.Fatal("cancel returned false for a pending timer")
	}
	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("canceled timer still fired")
	}
	if s.Cancel("k1") {
		t.Error("cancel returned true for an absent key")
	}
}

func TestSchedulerReplaceKey(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule("k1", 20*time.Millisecond, func() { first.Add(1) })
	s.Schedule("k1", 20*time.Millisecond, func() { second.Add(1) })

	time.Sleep(80 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("replaced timer still fired")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", second.Load())
	}
}

func TestSchedulerCancelPrefix(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired atomic.Int32
	fn := func() { fired.Add(1) }
	s.Schedule("emergency:p1:0", 20*time.Millisecond, fn)
	s.Schedule("emergency:p1:1", 20*time.Millisecond, fn)
	s.Schedule("emergency:p2:0", 20*time.Millisecond, fn)

	if n := s.CancelPrefix("emergency:p1:"); n != 2 {
		t.Errorf("canceled %d, want 2", n)
	}
	time.Sleep(80 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("fired %d times, want only p2's timer", fired.Load())
	}
}
