package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const staleAfter = 3 * time.Minute

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// LocalLimiter is a per-process token bucket per key. It is used when no
// Redis is configured, so limits are not shared between instances.
type LocalLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	r         rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter allows perSecond requests per second for each key with a
// burst of the same size. A perSecond of zero or less disables limiting.
func NewLocalLimiter(perSecond int) *LocalLimiter {
	return &LocalLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(perSecond),
		burst:   perSecond,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) bool {
	if l.burst <= 0 {
		return true
	}
	now := l.now()
	return l.get(key, now).AllowN(now, 1)
}

func (l *LocalLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > time.Minute {
		for k, c := range l.clients {
			if now.Sub(c.seen) > staleAfter {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	if c, ok := l.clients[key]; ok {
		c.seen = now
		return c.lim
	}
	lim := rate.NewLimiter(l.r, l.burst)
	l.clients[key] = &client{lim: lim, seen: now}
	return lim
}

func (l *LocalLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
