package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FailureLimiter throttles clients that keep failing authentication. Every
// failure spends one token of the client's bucket; a client with an empty
// bucket is rejected before its credentials are checked.
type FailureLimiter struct {
	mu       sync.Mutex
	clients  map[string]*failureClient
	limit    rate.Limit
	burst    int
	idle     time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

type failureClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewFailureLimiter allows burst failures per client, refilled at perSecond
func NewFailureLimiter(perSecond float64, burst int) *FailureLimiter {
	if burst < 1 {
		burst = 1
	}
	fl := &FailureLimiter{
		clients: make(map[string]*failureClient),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		stopCh:  make(chan struct{}),
	}
	// A bucket is full again after burst/perSecond; forget clients idle twice that long
	fl.idle = 10 * time.Minute
	if perSecond > 0 {
		fl.idle = 2 * time.Duration(float64(burst)/perSecond*float64(time.Second))
	}
	go fl.cleanup()
	return fl
}

// Blocked reports whether the client has exhausted its failure budget
func (fl *FailureLimiter) Blocked(key string) bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	c, ok := fl.clients[key]
	if !ok {
		return false
	}
	return c.limiter.Tokens() < 1
}

// RecordFailure spends one token of the client's budget
func (fl *FailureLimiter) RecordFailure(key string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	c, ok := fl.clients[key]
	if !ok {
		c = &failureClient{limiter: rate.NewLimiter(fl.limit, fl.burst)}
		fl.clients[key] = c
	}
	c.lastSeen = time.Now()
	c.limiter.Allow()
}

// Stop ends the cleanup loop
func (fl *FailureLimiter) Stop() {
	fl.stopOnce.Do(func() { close(fl.stopCh) })
}

// cleanup removes idle clients periodically
func (fl *FailureLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-fl.stopCh:
			return
		case <-ticker.C:
			fl.evictIdle(time.Now())
		}
	}
}

func (fl *FailureLimiter) evictIdle(now time.Time) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	for key, c := range fl.clients {
		if now.Sub(c.lastSeen) > fl.idle {
			delete(fl.clients, key)
		}
	}
}
