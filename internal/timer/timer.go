// Package timer schedules named one-shot and repeating wake-ups and fans
// them out to subscribers by name. Re-creating a name replaces the pending
// timer; clearing a name positively cancels it, so a stale firing is never
// delivered.
package timer

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Options configures a wake-up. When takes precedence over Delay for the
// first firing; Period, if set, repeats the timer after each firing.
type Options struct {
	Delay  time.Duration
	Period time.Duration
	When   time.Time
}

// Handler receives the name of a fired timer.
type Handler func(name string)

type entry struct {
	timer  *time.Timer
	period time.Duration
}

// Service implements the named-timer surface.
type Service struct {
	mu       sync.Mutex
	timers   map[string]*entry
	handlers []Handler
}

// NewService creates an empty timer service.
func NewService() *Service {
	return &Service{timers: make(map[string]*entry)}
}

// Subscribe registers a fan-in handler for all timer firings.
func (s *Service) Subscribe(fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Create schedules a wake-up under the given name, replacing any pending
// timer with that name.
func (s *Service) Create(name string, opts Options) {
	delay := opts.Delay
	if !opts.When.IsZero() {
		delay = time.Until(opts.When)
	}
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.timer.Stop()
	}

	e := &entry{period: opts.Period}
	e.timer = time.AfterFunc(delay, func() { s.fire(name, e) })
	s.timers[name] = e

	log.Debug().
		Str("timer", name).
		Dur("delay", delay).
		Dur("period", opts.Period).
		Msg("Timer scheduled")
}

// Clear cancels the named timer. Clearing an unknown name is a no-op.
func (s *Service) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[name]; ok {
		e.timer.Stop()
		delete(s.timers, name)
	}
}

// Stop cancels every pending timer.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, name)
	}
}

func (s *Service) fire(name string, e *entry) {
	s.mu.Lock()
	current, ok := s.timers[name]
	if !ok || current != e {
		// Replaced or cleared while the firing was in flight.
		s.mu.Unlock()
		return
	}
	if e.period > 0 {
		e.timer = time.AfterFunc(e.period, func() { s.fire(name, e) })
		s.timers[name] = e
	} else {
		delete(s.timers, name)
	}
	handlers := make([]Handler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(name)
	}
}
