package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	// DefaultWindow is the sliding window of the rate limiter.
	DefaultWindow   = time.Minute
	cleanupInterval = time.Minute
)

// RateLimiter limits requests per client IP in a sliding window.
type RateLimiter struct {
	limit      int
	window     time.Duration
	trustProxy bool
	exempt     []string
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	requests map[string][]time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithWindow overrides DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(rl *RateLimiter) {
		rl.window = d
	}
}

// WithTrustProxy makes the limiter key on proxy-supplied client IPs.
func WithTrustProxy(trust bool) Option {
	return func(rl *RateLimiter) {
		rl.trustProxy = trust
	}
}

// WithExemptPrefixes lists path prefixes that bypass the limiter.
func WithExemptPrefixes(prefixes ...string) Option {
	return func(rl *RateLimiter) {
		rl.exempt = append(rl.exempt, prefixes...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// Close must be called to stop the background cleanup.
func NewRateLimiter(limit int, opts ...Option) (*RateLimiter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}

	rl := &RateLimiter{
		limit:    limit,
		window:   DefaultWindow,
		logger:   slog.Default(),
		now:      time.Now,
		requests: make(map[string][]time.Time),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", rl.window)
	}

	go rl.cleanupLoop()

	rl.logger.Info("rate limiter initialized",
		"limit", limit,
		"window", rl.window.String(),
		"trust_proxy", rl.trustProxy,
	)
	return rl, nil
}

// Middleware wraps next with rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ip := ExtractIP(r, rl.trustProxy)
		allowed, oldest := rl.allow(ip)
		if !allowed {
			retryAfter := max(int((rl.window - rl.now().Sub(oldest)).Seconds()), 1)
			rl.logger.Debug("rate limit exceeded", "ip", ip, "path", r.URL.Path)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
				"code":  "rate_limited",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isExempt(path string) bool {
	return lo.SomeBy(rl.exempt, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// allow records a request from ip. When the window is full it returns false
// and the oldest request time still inside the window.
func (rl *RateLimiter) allow(ip string) (bool, time.Time) {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := within(rl.requests[ip], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false, valid[0]
	}
	rl.requests[ip] = append(valid, now)
	return true, time.Time{}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, timestamps := range rl.requests {
		valid := within(timestamps, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, ip)
			continue
		}
		rl.requests[ip] = valid
	}
}

// tracked returns the number of IPs with requests in memory.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func within(timestamps []time.Time, cutoff time.Time) []time.Time {
	return lo.Filter(timestamps, func(ts time.Time, _ int) bool {
		return ts.After(cutoff)
	})
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
	})
}
