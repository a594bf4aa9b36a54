package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	OpenTimeout         = 30 * time.Second
	HalfOpenMaxRequests = 3
)

// BreakerState is the position of a CircuitBreaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

var (
	// ErrCircuitOpen is returned without calling through while the breaker is open.
	ErrCircuitOpen             = errors.New("circuit breaker is open")
	errHalfOpenTooManyRequests = errors.New("too many requests in half-open")
)

// CircuitBreaker stops calling a failing dependency until it has had time to recover.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           BreakerState
	failures        int
	successes       int
	requests        int
	lastFailureTime time.Time
	openTimeout     time.Duration
	now             func() time.Time
}

// NewCircuitBreaker returns a closed breaker that stays open for OpenTimeout once tripped.
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		state:       BreakerClosed,
		openTimeout: OpenTimeout,
		now:         time.Now,
	}
}

// Call runs fn unless the breaker is open and records the outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	cb.mu.Lock()
	if cb.state == BreakerOpen {
		if cb.now().Sub(cb.lastFailureTime) >= cb.openTimeout {
			cb.transitionToHalfOpenLocked()
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	if cb.state == BreakerHalfOpen && cb.requests >= HalfOpenMaxRequests {
		cb.mu.Unlock()
		return errHalfOpenTooManyRequests
	}
	cb.mu.Unlock()

	callErr := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.requests++
	if callErr != nil {
		cb.failures++

		if cb.state == BreakerHalfOpen {
			cb.tripToOpenLocked()
		} else {
			cb.evaluateStateLocked()
		}

		return callErr
	}

	cb.successes++
	if cb.state == BreakerHalfOpen && cb.successes >= HalfOpenMaxRequests {
		cb.state = BreakerClosed
		cb.resetCountersLocked()
	}

	return nil
}

// State returns the breaker's current position.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) evaluateStateLocked() {
	if cb.requests < MinRequests {
		return
	}

	errorRate := float64(cb.failures) / float64(cb.requests)
	if errorRate >= ErrorThreshold {
		cb.tripToOpenLocked()
	}
}

func (cb *CircuitBreaker) resetCountersLocked() {
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}

func (cb *CircuitBreaker) transitionToHalfOpenLocked() {
	cb.state = BreakerHalfOpen
	cb.resetCountersLocked()
}

func (cb *CircuitBreaker) tripToOpenLocked() {
	cb.state = BreakerOpen
	cb.lastFailureTime = cb.now()
	cb.resetCountersLocked()
}
