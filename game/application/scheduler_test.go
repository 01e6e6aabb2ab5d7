package application

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func newSchedulerWith(names ...string) *ClockScheduler {
	s := NewClockScheduler(8 * time.Millisecond)
	for _, n := range names {
		s.AddThread(n)
	}
	return s
}

func current(t *testing.T, s *ClockScheduler) string {
	t.Helper()
	name, ok := s.CurrentThread()
	if !ok {
		t.Fatalf("CurrentThread() reported no participants")
	}
	return name
}

func TestClockScheduler_RoundRobin(t *testing.T) {
	s := newSchedulerWith("0", "1", "2")

	want := []string{"0", "1", "2", "0"}
	for i, w := range want {
		if got := current(t, s); got != w {
			t.Errorf("step %d: CurrentThread() = %q, want %q", i, got, w)
		}
		s.Cycle()
	}
}

func TestClockScheduler_CheckCycleAccumulates(t *testing.T) {
	s := newSchedulerWith("0", "1")

	if s.CheckCycle(5 * time.Millisecond) {
		t.Fatalf("CheckCycle(5ms) cycled before the bound")
	}
	if !s.CheckCycle(3 * time.Millisecond) {
		t.Fatalf("CheckCycle(3ms) did not cycle at 8ms")
	}
	if got := current(t, s); got != "1" {
		t.Errorf("CurrentThread() = %q, want %q", got, "1")
	}
	// 上限を大きく超えても1回だけ巡回する
	if !s.CheckCycle(100 * time.Millisecond) {
		t.Fatalf("CheckCycle(100ms) did not cycle")
	}
	if got := current(t, s); got != "0" {
		t.Errorf("CurrentThread() = %q, want %q", got, "0")
	}
}

func TestClockScheduler_DefaultMaxTurn(t *testing.T) {
	s := NewClockScheduler(0)
	if s.MaxTurn() != DefaultMaxTurn {
		t.Errorf("MaxTurn() = %v, want %v", s.MaxTurn(), DefaultMaxTurn)
	}
}

func TestClockScheduler_Empty(t *testing.T) {
	s := NewClockScheduler(DefaultMaxTurn)
	if _, ok := s.CurrentThread(); ok {
		t.Errorf("CurrentThread() ok on empty scheduler")
	}
	s.Cycle()
	s.CheckCycle(time.Second)
	if s.Yield("0") {
		t.Errorf("Yield() = true on empty scheduler")
	}
}

func TestClockScheduler_RemoveThread(t *testing.T) {
	s := newSchedulerWith("a", "b", "c")
	s.Cycle() // b

	if !s.RemoveThread("a") {
		t.Fatalf("RemoveThread(a) = false")
	}
	if got := current(t, s); got != "b" {
		t.Errorf("after removing a: CurrentThread() = %q, want %q", got, "b")
	}
	if !s.RemoveThread("b") {
		t.Fatalf("RemoveThread(b) = false")
	}
	if got := current(t, s); got != "c" {
		t.Errorf("after removing b: CurrentThread() = %q, want %q", got, "c")
	}
	if s.RemoveThread("missing") {
		t.Errorf("RemoveThread(missing) = true")
	}
	if !s.RemoveThread("c") {
		t.Fatalf("RemoveThread(c) = false")
	}
	if _, ok := s.CurrentThread(); ok {
		t.Errorf("CurrentThread() ok after removing every thread")
	}
}

func TestClockScheduler_RemoveLastWhileCurrent(t *testing.T) {
	s := newSchedulerWith("a", "b")
	s.Cycle() // b
	s.RemoveThread("b")
	if got := current(t, s); got != "a" {
		t.Errorf("CurrentThread() = %q, want %q", got, "a")
	}
}

func TestClockScheduler_ClearScheduler(t *testing.T) {
	s := newSchedulerWith("0", "1")
	s.ClearScheduler()
	if n := len(s.Threads()); n != 0 {
		t.Errorf("len(Threads()) = %d, want 0", n)
	}
}

func TestClockScheduler_TurnOnlyForCurrent(t *testing.T) {
	s := newSchedulerWith("0", "1")

	called := false
	if s.Turn("1", func() { called = true }) {
		t.Errorf("Turn(1) = true while 0 holds the turn")
	}
	if called {
		t.Errorf("fn ran without the turn")
	}
	if !s.Turn("0", func() { called = true }) {
		t.Errorf("Turn(0) = false")
	}
	if !called {
		t.Errorf("fn did not run")
	}
	if got := current(t, s); got != "1" {
		t.Errorf("CurrentThread() = %q, want %q", got, "1")
	}
}

func TestClockScheduler_ForcedCycleDuringTurn(t *testing.T) {
	s := newSchedulerWith("0", "1", "2")

	s.Turn("0", func() {
		s.CheckCycle(8 * time.Millisecond)
	})
	// 強制巡回で既に1へ移っているので、0の譲渡で2へ進んではいけない
	if got := current(t, s); got != "1" {
		t.Errorf("CurrentThread() = %q, want %q", got, "1")
	}
}

func TestClockScheduler_TurnIsExclusive(t *testing.T) {
	s := newSchedulerWith("0", "1")

	var inside atomic.Int32
	var overlap atomic.Bool
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for _, name := range []string{"0", "1"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 2000 {
				s.Turn(name, func() {
					if inside.Add(1) != 1 {
						overlap.Store(true)
					}
					inside.Add(-1)
				})
			}
		}()
	}
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				s.CheckCycle(8 * time.Millisecond)
			}
		}
	}()
	wg.Wait()
	close(stop)

	if overlap.Load() {
		t.Errorf("two threads held the turn at the same time")
	}
}

func TestClockScheduler_ForcedCyclesAreFair(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "threads")
		steps := rapid.IntRange(0, 64).Draw(t, "steps")

		s := NewClockScheduler(DefaultMaxTurn)
		for i := range n {
			s.AddThread(threadName(i))
		}
		for range steps {
			s.CheckCycle(DefaultMaxTurn)
		}
		got, _ := s.CurrentThread()
		if want := threadName(steps % n); got != want {
			t.Fatalf("CurrentThread() = %q, want %q", got, want)
		}
	})
}
