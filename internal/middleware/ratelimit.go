package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/darkodi/urlshorten/internal/errors"
	"github.com/darkodi/urlshorten/internal/logger"
)

// RateLimiter implements a per-client sliding window log. Every admitted
// request occupies a slot that expires one window after admission.
type RateLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	length     time.Duration // window length
	cleanup    time.Duration // janitor interval
	trustProxy bool
	now        func() time.Time
	log        *logger.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// window is the queue of slot expiries of one client, oldest first.
type window struct {
	mu       sync.Mutex
	expiries []time.Time
}

// RateLimiterConfig holds rate limiter settings
type RateLimiterConfig struct {
	Limit      int           // Requests per window
	Window     time.Duration // Window length
	Cleanup    time.Duration // Interval for evicting empty windows, 0 disables
	TrustProxy bool          // Key clients by X-Forwarded-For / X-Real-IP
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Limit:   20,
		Window:  time.Hour,
		Cleanup: 5 * time.Minute,
	}
}

// Decision is the outcome of Admit.
type Decision struct {
	Limit     int
	Remaining int
	ResetAt   time.Time // expiry of the oldest slot
	Allowed   bool
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) { rl.now = now }
}

// NewRateLimiter creates a new rate limiter. The caller owns it and must
// call Close to stop the cleanup goroutine.
func NewRateLimiter(cfg RateLimiterConfig, log *logger.Logger, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		windows:    make(map[string]*window),
		limit:      cfg.Limit,
		length:     cfg.Window,
		cleanup:    cfg.Cleanup,
		trustProxy: cfg.TrustProxy,
		now:        time.Now,
		log:        log,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	if rl.cleanup > 0 {
		go rl.cleanupLoop()
	} else {
		close(rl.done)
	}

	return rl
}

// Admit records a request for key and reports whether it may proceed.
//
// Expired slots are dropped first. A slot is then recorded whenever the
// queue holds no more than limit entries, so the request that crosses the
// limit still takes a slot and comes back with Remaining == -1.
func (rl *RateLimiter) Admit(key string) Decision {
	rl.mu.Lock()
	w, ok := rl.windows[key]
	if !ok {
		w = &window{}
		rl.windows[key] = w
	}
	// lock the window before releasing the map so the janitor cannot evict
	// it in between
	w.mu.Lock()
	rl.mu.Unlock()
	defer w.mu.Unlock()

	now := rl.now()
	w.prune(now)

	if len(w.expiries) <= rl.limit {
		w.expiries = append(w.expiries, now.Add(rl.length))
	}

	d := Decision{
		Limit:     rl.limit,
		Remaining: rl.limit - len(w.expiries),
	}
	if len(w.expiries) > 0 {
		d.ResetAt = w.expiries[0]
	}
	d.Allowed = d.Remaining >= 0
	return d
}

// prune drops every slot whose expiry is not after now.
func (w *window) prune(now time.Time) {
	i := 0
	for i < len(w.expiries) && !w.expiries[i].After(now) {
		i++
	}
	if i > 0 {
		w.expiries = w.expiries[i:]
	}
}

// Clients returns the number of tracked client windows.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Evict removes windows that hold no live slots.
func (rl *RateLimiter) Evict() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		w.mu.Lock()
		w.prune(now)
		if len(w.expiries) == 0 {
			delete(rl.windows, key)
		}
		w.mu.Unlock()
	}
	return len(rl.windows)
}

// cleanupLoop removes empty windows periodically
func (rl *RateLimiter) cleanupLoop() {
	defer close(rl.done)

	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			count := rl.Evict()
			if rl.log != nil {
				rl.log.Debug("rate limiter cleanup", "active_clients", count)
			}
		}
	}
}

// Close stops the cleanup goroutine and drops all windows.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.stop)
		<-rl.done

		rl.mu.Lock()
		rl.windows = make(map[string]*window)
		rl.mu.Unlock()
	})
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.clientKey(r)
			d := rl.Admit(key)

			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.ResetAt.IsZero() {
				h.Set("RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}

			if !d.Allowed {
				if rl.log != nil {
					rl.log.Warn("rate limit exceeded",
						"request_id", getRequestID(r.Context()),
						"client", key,
						"path", r.URL.Path,
					)
				}

				retryAfter := int(d.ResetAt.Sub(rl.now()).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				errors.RateLimitExceeded().WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the client of a request. Proxy headers are only
// honoured when the limiter is configured to trust them.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	if rl.trustProxy {
		// Take the first IP in the list
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
