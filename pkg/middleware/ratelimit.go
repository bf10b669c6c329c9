package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/buildsight/marksearch/pkg/httputil"
)

// RateLimitConfig bounds how fast one client may issue requests.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// DefaultRateLimitConfig allows a generous interactive search rate.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 300,
		WindowDuration:    time.Minute,
	}
}

type window struct {
	count int
	reset time.Time
}

// RateLimiter tracks fixed windows per client address.
type RateLimiter struct {
	config  *RateLimitConfig
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		config:  config,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether the client may make another request now.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[client]
	if !ok || now.After(w.reset) {
		rl.windows[client] = &window{count: 1, reset: now.Add(rl.config.WindowDuration)}
		return true
	}
	if w.count >= rl.config.RequestsPerWindow {
		return false
	}
	w.count++
	return true
}

// Middleware rejects over-limit clients with 429, keyed by remote IP.
func (rl *RateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			if host, _, err := net.SplitHostPort(client); err == nil {
				client = host
			}
			if !rl.Allow(client) {
				httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
