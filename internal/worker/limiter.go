package worker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/mediator/internal/model"
)

// Limiter throttles submissions per agent. A zero default rate leaves
// agents without an override unlimited.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a per-agent limiter
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(perSecond),
		defaultBurst: burst,
	}
}

// Enabled reports whether the limiter throttles anything
func (l *Limiter) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaultRate > 0 || len(l.limiters) > 0
}

// Check admits one submission from agent or returns model.ErrRateLimited
func (l *Limiter) Check(agent string) error {
	limiter := l.limiterFor(agent)
	if limiter == nil {
		return nil
	}
	if !limiter.Allow() {
		return fmt.Errorf("%w: agent %s", model.ErrRateLimited, agent)
	}
	return nil
}

// Wait blocks until agent may submit again
func (l *Limiter) Wait(ctx context.Context, agent string) error {
	limiter := l.limiterFor(agent)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// limiterFor returns the limiter governing agent, or nil if agent is unlimited
func (l *Limiter) limiterFor(agent string) *rate.Limiter {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	limiter, exists := l.limiters[agent]
	l.mu.RUnlock()

	if exists {
		return limiter
	}
	if l.defaultRate <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[agent]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[agent] = limiter
	return limiter
}

// SetAgentRate overrides the limit for one agent
func (l *Limiter) SetAgentRate(agent string, perSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[agent] = rate.NewLimiter(rate.Limit(perSecond), burst)
}
