// Package circuit provides a circuit breaker that fails calls fast while a
// dependency is known to be down. It never retries on its own.
package circuit

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Allow while the circuit is open.
var ErrOpen = errors.New("circuit open")

type State int

const (
	StateClosed State = iota
	StateOpen
	// StateHalfOpen admits a single trial call after the cooldown.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker opens after FailureThreshold consecutive failures, stays open for
// Cooldown, then lets one trial call through. The trial's result closes or
// re-opens it.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failures         int
	openedAt         time.Time
	trialInFlight    bool
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time
	onChange         func(name string, from, to State)
}

type Option func(*Breaker)

// WithFailureThreshold sets the consecutive failures that open the circuit. Default 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open. Default 30s.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers a callback invoked (under no lock) on every transition.
func OnStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// State reports the current state, promoting open to half-open once the cooldown elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Allow returns ErrOpen when the call must not be attempted.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
	}
	// half-open: one trial at a time
	if b.trialInFlight {
		b.mu.Unlock()
		return ErrOpen
	}
	b.trialInFlight = true
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return nil
}

// RecordSuccess closes the circuit and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state
	b.state = StateClosed
	b.failures = 0
	b.trialInFlight = false
	b.mu.Unlock()
	b.notify(from, StateClosed)
}

// RecordFailure counts a failure; a failed trial re-opens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	from := b.state
	b.failures++
	b.trialInFlight = false
	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

// Release ends a call whose outcome says nothing about the dependency, such as
// one abandoned by its caller. A half-open trial slot is freed; state and the
// failure count are unchanged.
func (b *Breaker) Release() {
	b.mu.Lock()
	b.trialInFlight = false
	b.mu.Unlock()
}

// Reset forces the circuit closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state = StateClosed
	b.failures = 0
	b.trialInFlight = false
	b.mu.Unlock()
	b.notify(from, StateClosed)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
