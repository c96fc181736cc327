// Package ratelimit throttles API clients with a token bucket per caller.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/clock"
	"github.com/educheia/educheia/internal/httputil"
)

const (
	cleanupInterval = 5 * time.Minute
	idleTTL         = 10 * time.Minute
)

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

type Limiter struct {
	clk     clock.Clock
	rate    float64
	burst   float64
	cleaner *clock.Repeater

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter allows requestsPerSecond on average with bursts up to burst.
// Idle callers are forgotten after ten minutes.
func NewLimiter(clk clock.Clock, requestsPerSecond float64, burst int) *Limiter {
	if clk == nil {
		clk = clock.Real()
	}
	l := &Limiter{
		clk:     clk,
		rate:    requestsPerSecond,
		burst:   float64(burst),
		buckets: make(map[string]*bucket),
	}
	l.cleaner = clock.Every(clk, cleanupInterval, l.cleanup)
	return l
}

func (l *Limiter) Stop() {
	l.cleaner.Stop()
}

func (l *Limiter) Allow(key string) bool {
	now := l.clk.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.burst - 1, lastSeen: now}
		return true
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rate
	b.lastSeen = now
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) cleanup() {
	now := l.clk.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Middleware limits signed-in users by uid and everyone else by client IP.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(callerKey(r)) {
			w.Header().Set("Retry-After", "10")
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if uid := auth.UserIDFromContext(r.Context()); uid != "" {
		return "user:" + uid
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
