// Package ratelimit implements process-local fixed-window request counters.
//
// Counters live in memory, so limits only hold for a single instance. A
// horizontally scaled deployment needs a shared store with atomic
// increment and expiry instead.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bucket is an independently counted request category.
type Bucket struct {
	Name   string
	Limit  int
	Window time.Duration
}

const (
	NameRead    = "read"
	NameWrite   = "write"
	NameAuth    = "auth"
	NameAIBurst = "ai:burst"
	NameAIDaily = "ai:daily"
)

// Buckets is the configured set of limits.
type Buckets struct {
	Read    Bucket
	Write   Bucket
	Auth    Bucket
	AIBurst Bucket
	AIDaily Bucket
}

// DefaultBuckets returns the stock limits.
func DefaultBuckets() Buckets {
	return Buckets{
		Read:    Bucket{Name: NameRead, Limit: 120, Window: time.Minute},
		Write:   Bucket{Name: NameWrite, Limit: 60, Window: time.Minute},
		Auth:    Bucket{Name: NameAuth, Limit: 10, Window: time.Minute},
		AIBurst: Bucket{Name: NameAIBurst, Limit: 5, Window: time.Minute},
		AIDaily: Bucket{Name: NameAIDaily, Limit: 50, Window: 24 * time.Hour},
	}
}

// Decision is the outcome of one Check.
type Decision struct {
	Allowed    bool
	Remaining  int
	TTLSeconds int
}

// ExceededError reports the first bucket that denied a request.
type ExceededError struct {
	Bucket     string
	Remaining  int
	RetryAfter int // seconds
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %ds", e.Bucket, e.RetryAfter)
}

var deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "barnlog_ratelimit_denied_total",
	Help: "Requests denied by the rate limiter, by bucket",
}, []string{"bucket"})

type counterKey struct {
	bucket   string
	identity string
}

type counter struct {
	count   int
	expires time.Time
}

// Limiter holds fixed-window counters keyed by (bucket, identity). It is
// safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	now      func() time.Time
	counters map[counterKey]*counter
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates an empty Limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		now:      time.Now,
		counters: make(map[counterKey]*counter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request against b for identity. A counter is created on
// the first request of a window and reset once the window has elapsed.
func (l *Limiter) Check(b Bucket, identity string) Decision {
	now := l.now()
	k := counterKey{bucket: b.Name, identity: identity}

	l.mu.Lock()
	c, ok := l.counters[k]
	if !ok || !now.Before(c.expires) {
		c = &counter{expires: now.Add(b.Window)}
		l.counters[k] = c
	}
	c.count++
	count, expires := c.count, c.expires
	l.mu.Unlock()

	d := Decision{
		Allowed:    count <= b.Limit,
		Remaining:  max(b.Limit-count, 0),
		TTLSeconds: ttlSeconds(expires.Sub(now)),
	}
	if !d.Allowed {
		deniedTotal.WithLabelValues(b.Name).Inc()
	}
	return d
}

// CheckAll counts the request against every bucket, so a denial in one
// never skips the others. It returns an *ExceededError for the first
// bucket that denied, or nil.
func (l *Limiter) CheckAll(identity string, buckets ...Bucket) error {
	var exceeded *ExceededError
	for _, b := range buckets {
		d := l.Check(b, identity)
		if !d.Allowed && exceeded == nil {
			exceeded = &ExceededError{Bucket: b.Name, Remaining: d.Remaining, RetryAfter: d.TTLSeconds}
		}
	}
	if exceeded != nil {
		return exceeded
	}
	return nil
}

// Sweep drops counters whose window has elapsed and returns how many were
// removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, c := range l.counters {
		if !now.Before(c.expires) {
			delete(l.counters, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live counters.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}

func ttlSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
