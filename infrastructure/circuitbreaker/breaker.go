// Package circuitbreaker fails calls fast after repeated failures of a
// downstream dependency.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before a probe is allowed.
	Timeout time.Duration
	// OnStateChange is called with the lock held; it must not call back into the breaker.
	OnStateChange func(from, to State)
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	}
}

// Breaker is safe for concurrent use.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	probeInFlight bool
	openedAt      time.Time
	config        Config
}

// New creates a breaker; zero config values take DefaultConfig values.
func New(config Config) *Breaker {
	def := DefaultConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Breaker{state: StateClosed, config: config}
}

// Execute runs fn unless the circuit is open. Cancellation of ctx is not
// counted as a downstream failure.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		remaining := b.config.Timeout - b.config.Now().Sub(b.openedAt)
		if remaining > 0 {
			return fmt.Errorf("%w: retry in %v", ErrCircuitOpen, remaining.Round(time.Millisecond))
		}
		b.transitionTo(StateHalfOpen)
		b.probeInFlight = true
	case StateHalfOpen:
		if b.probeInFlight {
			return fmt.Errorf("%w: probe in flight", ErrCircuitOpen)
		}
		b.probeInFlight = true
	case StateClosed:
	}
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeInFlight = false
	if err != nil && !errors.Is(err, context.Canceled) {
		b.recordFailure()
		return
	}
	if err == nil {
		b.recordSuccess()
	}
}

func (b *Breaker) recordFailure() {
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	case StateOpen:
	}
}

func (b *Breaker) recordSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	case StateOpen:
	}
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState
	b.failures = 0
	b.successes = 0
	if newState == StateOpen {
		b.openedAt = b.config.Now()
	}

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, newState)
	}
}

// State returns the current state of the circuit breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
	b.transitionTo(StateClosed)
}
