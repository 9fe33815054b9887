// Package ratelimit paces outbound deliveries per mail server so a burst of
// inbound messages does not trip the provider's sending limits.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket per key (typically the SMTP host). Every bucket
// refills at the same rate and holds at most one second of tokens.
type Limiter struct {
	perSecond float64
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// New creates a limiter allowing perSecond sends per key. A perSecond of 0
// or less disables limiting.
func New(perSecond int) *Limiter {
	return &Limiter{
		perSecond: float64(perSecond),
		now:       time.Now,
		buckets:   make(map[string]*bucket),
	}
}

// Unlimited reports whether the limiter lets everything through.
func (l *Limiter) Unlimited() bool {
	return l == nil || l.perSecond <= 0
}

// Allow takes a token for key if one is available.
func (l *Limiter) Allow(key string) bool {
	if l.Unlimited() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(key)
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until a token for key is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l.Unlimited() {
		return nil
	}

	interval := time.Duration(float64(time.Second) / l.perSecond)
	for {
		if l.Allow(key) {
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset forgets the bucket for key.
func (l *Limiter) Reset(key string) {
	if l.Unlimited() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// bucketFor returns the refilled bucket for key. Callers hold l.mu.
func (l *Limiter) bucketFor(key string) *bucket {
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.perSecond, lastFill: now}
		l.buckets[key] = b
		return b
	}

	b.tokens += now.Sub(b.lastFill).Seconds() * l.perSecond
	if b.tokens > l.perSecond {
		b.tokens = l.perSecond
	}
	b.lastFill = now
	return b
}
