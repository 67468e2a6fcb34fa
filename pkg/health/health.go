// Package health tracks the state of the service's dependencies.
package health

import (
	"context"
	"sync"
	"time"

	"brokerage-chat/backend/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Component is the last known state of one dependency
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
}

// CheckFunc checks a dependency; nil means healthy
type CheckFunc func(ctx context.Context) error

type check struct {
	fn       CheckFunc
	critical bool
}

// Checker runs registered checks periodically and caches the results
type Checker struct {
	mu         sync.RWMutex
	checks     map[string]check
	components map[string]*Component
	timeout    time.Duration
	log        *logger.Logger
	listeners  []func(healthy bool)
}

// NewChecker creates a checker; each check is bounded by timeout
func NewChecker(log *logger.Logger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		checks:     make(map[string]check),
		components: make(map[string]*Component),
		timeout:    timeout,
		log:        log,
	}
}

// Register adds a check. Critical components make the whole service unhealthy when down.
func (c *Checker) Register(name string, critical bool, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check{fn: fn, critical: critical}
	c.components[name] = &Component{Name: name, Status: StatusDown, Critical: critical}
}

// OnChange registers a callback invoked after every run with the overall result
func (c *Checker) OnChange(fn func(healthy bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// RunChecks executes all registered checks once
func (c *Checker) RunChecks(ctx context.Context) {
	c.mu.RLock()
	checks := make(map[string]check, len(c.checks))
	for name, chk := range c.checks {
		checks[name] = chk
	}
	c.mu.RUnlock()

	results := make(map[string]error, len(checks))
	for name, chk := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		results[name] = chk.fn(checkCtx)
		cancel()
	}

	now := time.Now()
	c.mu.Lock()
	for name, err := range results {
		comp := c.components[name]
		comp.LastChecked = now
		if err != nil {
			if comp.Status != StatusDown || comp.Error != err.Error() {
				c.log.Error("Health check failed", "component", name, "error", err.Error())
			}
			comp.Status = StatusDown
			comp.Error = err.Error()
			continue
		}
		comp.Status = StatusUp
		comp.Error = ""
	}
	healthy := c.healthyLocked()
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(healthy)
	}
}

// Start runs checks now and then every period until ctx is done
func (c *Checker) Start(ctx context.Context, period time.Duration) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.RunChecks(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Components returns a copy of the current component states
func (c *Checker) Components() map[string]Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Component, len(c.components))
	for k, v := range c.components {
		out[k] = *v
	}
	return out
}

// Healthy reports whether every critical component is up
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthyLocked()
}

func (c *Checker) healthyLocked() bool {
	for _, comp := range c.components {
		if comp.Critical && comp.Status != StatusUp {
			return false
		}
	}
	return true
}
