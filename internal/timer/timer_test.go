package timer

import (
	"sync"
	"testing"
	"time"
)

// recorder collects fired timer names.
type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, name)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.fired {
		if f == name {
			n++
		}
	}
	return n
}

func TestOneShotFires(t *testing.T) {
	s := NewService()
	defer s.Stop()

	rec := &recorder{}
	s.Subscribe(rec.record)

	s.Create("once", Options{Delay: 10 * time.Millisecond})

	deadline := time.After(time.Second)
	for rec.count("once") == 0 {
		select {
		case <-deadline:
			t.Fatal("Timer never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := rec.count("once"); got != 1 {
		t.Errorf("Expected 1 firing, got %d", got)
	}
}

func TestClearCancels(t *testing.T) {
	s := NewService()
	defer s.Stop()

	rec := &recorder{}
	s.Subscribe(rec.record)

	s.Create("doomed", Options{Delay: 30 * time.Millisecond})
	s.Clear("doomed")

	time.Sleep(80 * time.Millisecond)
	if got := rec.count("doomed"); got != 0 {
		t.Errorf("Expected 0 firings after clear, got %d", got)
	}
}

func TestCreateReplacesPending(t *testing.T) {
	s := NewService()
	defer s.Stop()

	rec := &recorder{}
	s.Subscribe(rec.record)

	s.Create("replace", Options{Delay: 20 * time.Millisecond})
	s.Create("replace", Options{Delay: 60 * time.Millisecond})

	time.Sleep(40 * time.Millisecond)
	if got := rec.count("replace"); got != 0 {
		t.Errorf("Replaced timer fired on the old schedule: %d firings", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := rec.count("replace"); got != 1 {
		t.Errorf("Expected 1 firing on the new schedule, got %d", got)
	}
}

func TestPeriodRepeats(t *testing.T) {
	s := NewService()
	defer s.Stop()

	rec := &recorder{}
	s.Subscribe(rec.record)

	s.Create("tick", Options{Delay: 10 * time.Millisecond, Period: 15 * time.Millisecond})

	deadline := time.After(2 * time.Second)
	for rec.count("tick") < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected at least 3 firings, got %d", rec.count("tick"))
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Clear("tick")
	base := rec.count("tick")
	time.Sleep(50 * time.Millisecond)
	if got := rec.count("tick"); got > base+1 {
		t.Errorf("Timer kept firing after clear: %d -> %d", base, got)
	}
}

func TestWhenSchedulesAbsolute(t *testing.T) {
	s := NewService()
	defer s.Stop()

	rec := &recorder{}
	s.Subscribe(rec.record)

	s.Create("when", Options{When: time.Now().Add(15 * time.Millisecond)})

	deadline := time.After(time.Second)
	for rec.count("when") == 0 {
		select {
		case <-deadline:
			t.Fatal("Absolute timer never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
