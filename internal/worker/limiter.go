package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter implements per-client rate limiting, keyed by client address
type Limiter struct {
	limiters     map[string]*clientLimiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
	now          func() time.Time
}

// NewLimiter creates a limiter granting each client requestsPerSecond with
// the given burst. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*clientLimiter),
		defaultRate:  limit,
		defaultBurst: burst,
		now:          time.Now,
	}
}

// Wait blocks until client may proceed or ctx ends
func (l *Limiter) Wait(ctx context.Context, client string) error {
	return l.getLimiter(client).Wait(ctx)
}

// Allow reports whether client may proceed now
func (l *Limiter) Allow(client string) bool {
	return l.getLimiter(client).Allow()
}

func (l *Limiter) getLimiter(client string) *rate.Limiter {
	now := l.now()

	l.mu.RLock()
	entry, exists := l.limiters[client]
	l.mu.RUnlock()

	if exists {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists := l.limiters[client]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	entry = &clientLimiter{
		limiter:  rate.NewLimiter(l.defaultRate, l.defaultBurst),
		lastSeen: now,
	}
	l.limiters[client] = entry
	return entry.limiter
}

// Prune forgets clients idle for longer than idle and returns how many were removed
func (l *Limiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for client, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, client)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients
func (l *Limiter) Clients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// RunPruner prunes idle clients every interval until ctx ends
func (l *Limiter) RunPruner(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune(idle)
		}
	}
}
