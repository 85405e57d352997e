package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Bahjat/seo-monitor/internal/platform/errs"
	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
	"github.com/Bahjat/seo-monitor/internal/platform/respond"
)

// idleLimiterTTL is how long a client's bucket survives without requests.
const idleLimiterTTL = 10 * time.Minute

// ClientLimiter provides per-client rate limiting using token buckets.
// Clients are keyed by authenticated user, falling back to remote IP.
type ClientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a ClientLimiter allowing rps sustained requests
// per second per client with the given burst.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, b := range l.clients {
			if now.Sub(b.lastSeen) > idleLimiterTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// RateLimit returns middleware that rejects requests over the client's
// quota with 429 Too Many Requests.
func RateLimit(l *ClientLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !l.Allow(key) {
				logger.Warn("rate limit exceeded",
					"client", key,
					"path", r.URL.Path,
					"request_id", reqctx.RequestID(r.Context()),
				)
				w.Header().Set("Retry-After", "1")
				respond.AppError(w, logger, errs.E(errs.RateLimited, "Too many analysis requests. Please wait and try again."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if u, ok := reqctx.User(r.Context()); ok {
		return "user:" + u.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
