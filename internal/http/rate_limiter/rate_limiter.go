package rate_limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	return &Limiter{
		visitors: make(map[string]*clientLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (l *Limiter) GetVisitor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(l.rps, l.burst)
		l.visitors[key] = &clientLimiter{limiter, l.now()}
		return limiter
	}

	v.lastSeen = l.now()
	return v.limiter
}

func (l *Limiter) Allow(key string) bool {
	return l.GetVisitor(key).AllowN(l.now(), 1)
}

// Cleanup drops clients idle for longer than the idle TTL and returns how many were removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) StartVisitorCleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// StrikeRecorder bans clients that keep hitting the limit.
type StrikeRecorder interface {
	IsBanned(ctx context.Context, target string) (bool, error)
	RecordStrike(ctx context.Context, target, route string) (bool, error)
}

// Middleware rejects banned clients with 403 and throttled ones with 429.
// strikes may be nil, in which case throttling never escalates to a ban.
func (l *Limiter) Middleware(strikes StrikeRecorder, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.With("middleware", "RateLimiter")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientKey(r)

			if strikes != nil {
				banned, err := strikes.IsBanned(r.Context(), client)
				if err != nil {
					log.Warn("ban lookup failed", "client", client, "error", err)
				} else if banned {
					http.Error(w, "too many requests: client banned", http.StatusForbidden)
					return
				}
			}

			if !l.Allow(client) {
				if strikes != nil {
					banned, err := strikes.RecordStrike(r.Context(), client, r.URL.Path)
					if err != nil {
						log.Warn("recording strike failed", "client", client, "error", err)
					} else if banned {
						log.Warn("client banned", "client", client, "route", r.URL.Path)
					}
				}
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey identifies the caller by remote IP.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
