// Package resilience guards calls to flaky collaborators such as the mail relay.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"brokerage-chat/backend/pkg/logger"
)

// ErrCircuitOpen is returned without calling the guarded function
var ErrCircuitOpen = errors.New("circuit open")

// State is the current state of a circuit breaker
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a circuit breaker
type Config struct {
	Name string
	// FailureThreshold consecutive failures open the circuit
	FailureThreshold uint
	// SuccessThreshold half-open successes close it again
	SuccessThreshold uint
	// Timeout bounds every guarded call; zero means no bound
	Timeout time.Duration
	// RetryTimeout is how long the circuit stays open
	RetryTimeout time.Duration
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		RetryTimeout:     60 * time.Second,
	}
}

// Stats is a snapshot of breaker counters
type Stats struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	TotalRequests   uint64    `json:"totalRequests"`
	TotalFailures   uint64    `json:"totalFailures"`
	TotalSuccesses  uint64    `json:"totalSuccesses"`
	Rejected        uint64    `json:"rejected"`
	TimesOpened     uint64    `json:"timesOpened"`
	LastFailureTime time.Time `json:"lastFailureTime"`
}

// CircuitBreaker stops calling a failing dependency for a while
type CircuitBreaker struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu              sync.Mutex
	state           State
	failures        uint
	successes       uint
	halfOpenInUse   uint
	nextAttemptTime time.Time
	stats           Stats
}

// New creates a circuit breaker in the closed state
func New(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CircuitBreaker{
		cfg:   cfg,
		log:   log.With("breaker", cfg.Name),
		now:   time.Now,
		state: StateClosed,
		stats: Stats{Name: cfg.Name},
	}
}

// Execute runs fn through the breaker
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allow() {
		return fmt.Errorf("%s: %w", cb.cfg.Name, ErrCircuitOpen)
	}

	if cb.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.cfg.Timeout)
		defer cancel()
	}

	start := cb.now()
	err := fn(ctx)
	if err != nil {
		cb.onFailure()
		cb.log.Warn("Guarded call failed", "error", err.Error(), "duration", cb.now().Sub(start).String())
		return err
	}

	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttemptTime) {
			cb.stats.Rejected++
			return false
		}
		cb.state = StateHalfOpen
		cb.successes = 0
		cb.halfOpenInUse = 0
		cb.log.Info("Circuit breaker half-open")
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenInUse >= cb.cfg.SuccessThreshold {
			cb.stats.Rejected++
			return false
		}
		cb.halfOpenInUse++
	}
	return true
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalSuccesses++

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.log.Info("Circuit breaker closed")
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalFailures++
	cb.stats.LastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		cb.open()
	}
}

// open must be called with mu held
func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.stats.TimesOpened++
	cb.nextAttemptTime = cb.now().Add(cb.cfg.RetryTimeout)
	cb.log.Info("Circuit breaker opened",
		"failures", cb.failures,
		"next_attempt", cb.nextAttemptTime.Format(time.RFC3339),
	)
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the counters
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := cb.stats
	s.State = cb.state
	return s
}
