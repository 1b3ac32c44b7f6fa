package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const ipEntryIdleTimeout = time.Hour

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimit throttles connection attempts per source address. Entries are
// created on first sight and pruned once idle.
type IPRateLimit struct {
	mu      sync.Mutex
	entries map[string]*ipEntry
}

func NewIPRateLimit() *IPRateLimit {
	return &IPRateLimit{entries: make(map[string]*ipEntry)}
}

// Allow reports whether ip may open another connection. Each address gets
// 10 connections per minute with a burst of 5.
func (l *IPRateLimit) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(rate.Every(6*time.Second), 5)}
		l.entries[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

// Cleanup discards limiters for addresses not seen recently.
func (l *IPRateLimit) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-ipEntryIdleTimeout)
	for ip, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, ip)
		}
	}
}
