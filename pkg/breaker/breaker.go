// Package breaker implements a count-based sliding window circuit breaker.
//
// The breaker guards calls to a dependency that may be slow or down. It keeps
// the outcomes of the most recent calls in a fixed-size window and opens once
// the observed failure rate crosses a threshold, failing fast until a wait
// period elapses. A limited number of trial calls then probe the dependency
// before the breaker either closes again or re-opens.
package breaker

import (
	"sync"
	"time"
)

// State represents the breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns string representation of the state
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Clock provides time information for state transitions.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// systemClock provides actual system time
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Config holds breaker tuning
type Config struct {
	// WindowSize is the number of most recent call outcomes kept
	WindowSize int
	// MinCalls is the minimum number of recorded calls before the
	// failure rate is evaluated at all
	MinCalls int
	// FailureRatePct opens the breaker when the failure rate over the
	// window reaches this percentage
	FailureRatePct int
	// OpenWait is how long the breaker stays open before permitting
	// trial calls
	OpenWait time.Duration
	// HalfOpenCalls is the number of trial calls permitted in half-open
	HalfOpenCalls int
}

// Option configures a Breaker
type Option func(*Breaker)

// WithClock replaces the system clock, for tests
func WithClock(clock Clock) Option {
	return func(b *Breaker) {
		b.clock = clock
	}
}

// Breaker is a thread-safe circuit breaker.
// The zero value is not usable; create one with New.
type Breaker struct {
	mu    sync.Mutex
	cfg   Config
	clock Clock

	state    State
	openedAt time.Time

	// sliding window of closed-state outcomes, true means failure
	window   []bool
	head     int
	recorded int

	// half-open trial accounting, evaluated independently of the window
	trialsAdmitted int
	trialsDone     int
	trialFailures  int
}

// New creates a breaker in the closed state
func New(cfg Config, opts ...Option) *Breaker {
	if cfg.WindowSize < 1 {
		cfg.WindowSize = 10
	}
	if cfg.MinCalls < 1 {
		cfg.MinCalls = 5
	}
	if cfg.FailureRatePct < 1 {
		cfg.FailureRatePct = 50
	}
	if cfg.OpenWait <= 0 {
		cfg.OpenWait = 5 * time.Second
	}
	if cfg.HalfOpenCalls < 1 {
		cfg.HalfOpenCalls = 3
	}

	b := &Breaker{
		cfg:    cfg,
		clock:  systemClock{},
		state:  StateClosed,
		window: make([]bool, cfg.WindowSize),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Allow reports whether a call may proceed. Callers must pair every
// permitted call with exactly one Record.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.clock.Now().Sub(b.openedAt) < b.cfg.OpenWait {
			return false
		}
		b.toHalfOpen()
		fallthrough
	case StateHalfOpen:
		if b.trialsAdmitted >= b.cfg.HalfOpenCalls {
			return false
		}
		b.trialsAdmitted++
		return true
	default:
		return true
	}
}

// Record registers the outcome of a permitted call
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.trialsDone++
		if !success {
			b.trialFailures++
		}
		if b.trialsDone < b.cfg.HalfOpenCalls {
			return
		}
		// All trial calls settled, decide using the same rate threshold
		if b.trialFailures*100 >= b.cfg.FailureRatePct*b.trialsDone {
			b.toOpen()
		} else {
			b.toClosed()
		}
		return
	}

	// Closed and open states share the sliding window; an in-flight call
	// finishing after a trip still lands here.
	b.window[b.head] = !success
	b.head = (b.head + 1) % b.cfg.WindowSize
	if b.recorded < b.cfg.WindowSize {
		b.recorded++
	}

	if b.state == StateClosed && b.shouldTrip() {
		b.toOpen()
	}
}

// State returns the current breaker state, transitioning open to half-open
// when the wait period has elapsed
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.clock.Now().Sub(b.openedAt) >= b.cfg.OpenWait {
		b.toHalfOpen()
	}

	return b.state
}

// shouldTrip evaluates the failure rate over the window. Callers hold b.mu.
func (b *Breaker) shouldTrip() bool {
	if b.recorded < b.cfg.MinCalls {
		return false
	}

	failures := 0
	for i := 0; i < b.recorded; i++ {
		if b.window[i] {
			failures++
		}
	}

	return failures*100 >= b.cfg.FailureRatePct*b.recorded
}

func (b *Breaker) toOpen() {
	b.state = StateOpen
	b.openedAt = b.clock.Now()
	b.trialsAdmitted = 0
	b.trialsDone = 0
	b.trialFailures = 0
}

func (b *Breaker) toHalfOpen() {
	b.state = StateHalfOpen
	b.trialsAdmitted = 0
	b.trialsDone = 0
	b.trialFailures = 0
}

func (b *Breaker) toClosed() {
	b.state = StateClosed
	b.window = make([]bool, b.cfg.WindowSize)
	b.head = 0
	b.recorded = 0
}
