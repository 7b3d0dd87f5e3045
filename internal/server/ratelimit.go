package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a client's limiter is kept after its last request.
const idleLimiterTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter applies a per-client requests-per-minute budget keyed by remote IP.
type clientLimiter struct {
	perMinute int
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{perMinute: perMinute, visitors: make(map[string]*visitor)}
}

func (c *clientLimiter) allow(key string, now time.Time) bool {
	if c.perMinute <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) > idleLimiterTTL {
		for k, v := range c.visitors {
			if now.Sub(v.lastSeen) > idleLimiterTTL {
				delete(c.visitors, k)
			}
		}
		c.lastSweep = now
	}

	v, ok := c.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.perMinute)), c.perMinute)}
		c.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !s.limiter.allow(key, time.Now()) {
			s.logger.Warn("rate limit exceeded", zap.String("client", key))
			w.Header().Set("Retry-After", "60")
			s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
