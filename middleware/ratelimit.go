package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a process-wide token bucket. rps is the steady
// refill rate, burst the bucket depth.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PerClientRateLimit buckets by a client key (the session token when present,
// otherwise the remote address) so one hot client cannot starve the rest.
type PerClientRateLimit struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewPerClientRateLimit(rps float64, burst int) *PerClientRateLimit {
	return &PerClientRateLimit{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (p *PerClientRateLimit) limiterFor(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(p.rps, p.burst)
	p.limiters[key] = l
	return l
}

func (p *PerClientRateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Authorization")
		if key == "" {
			key = r.RemoteAddr
		}
		if !p.limiterFor(key).Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
