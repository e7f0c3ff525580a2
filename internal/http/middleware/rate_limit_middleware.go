package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agora-forum/agora/internal/http/response"
	"github.com/agora-forum/agora/internal/observability"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Limiter answers whether one more request under key fits inside the
// window. Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// unknownKeyDivisor shrinks the budget for requests whose client address
// could not be resolved; they all share one bucket.
const unknownKeyDivisor = 2

type fixedWindow struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// LRULimiter is a process-local fixed-window limiter whose entry count is
// hard-capped. Memory stays bounded no matter how many distinct client
// keys show up; the least recently active key is evicted first, which
// resets its window. That reset is the accepted cost of the bound.
type LRULimiter struct {
	entries *lru.Cache[string, *fixedWindow]
}

func NewLRULimiter(maxKeys int) (*LRULimiter, error) {
	if maxKeys <= 0 {
		return nil, fmt.Errorf("limiter capacity must be positive, got %d", maxKeys)
	}
	entries, err := lru.New[string, *fixedWindow](maxKeys)
	if err != nil {
		return nil, err
	}
	return &LRULimiter{entries: entries}, nil
}

func (l *LRULimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	entry := &fixedWindow{}
	if prev, ok, _ := l.entries.PeekOrAdd(key, entry); ok {
		entry = prev
	}
	l.entries.Get(key) // refresh recency

	now := time.Now()
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.windowStart.IsZero() || now.Sub(entry.windowStart) >= window {
		entry.windowStart = now
		entry.count = 1
		return true, 0, nil
	}
	if entry.count >= limit {
		retryAfter := window - now.Sub(entry.windowStart)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}
	entry.count++
	return true, 0, nil
}

// Len reports the number of tracked keys; it never exceeds the capacity
// given at construction.
func (l *LRULimiter) Len() int { return l.entries.Len() }

// RateLimiter enforces one limiter class on a route group. The key is
// the resolved client address scoped by class, so a login flood does not
// consume a client's read budget.
type RateLimiter struct {
	limiter  Limiter
	resolver *ClientIPResolver
	class    string
	limit    int
	window   time.Duration
	mode     FailureMode
}

func NewRateLimiter(limiter Limiter, resolver *ClientIPResolver, class string, limit int, window time.Duration, mode FailureMode) *RateLimiter {
	return &RateLimiter{
		limiter:  limiter,
		resolver: resolver,
		class:    class,
		limit:    limit,
		window:   window,
		mode:     mode,
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := rl.limit
			client := rl.resolver.Resolve(r)
			if client == "" {
				client = "unknown"
				limit = rl.limit / unknownKeyDivisor
				if limit < 1 {
					limit = 1
				}
			}
			key := rl.class + ":" + client

			allowed, retryAfter, err := rl.limiter.Allow(r.Context(), key, limit, rl.window)
			if err != nil {
				if rl.mode == FailOpen {
					slog.WarnContext(r.Context(), "rate limiter backend unavailable, allowing request",
						"class", rl.class,
						"error", err.Error(),
					)
					next.ServeHTTP(w, r)
					return
				}
				observability.RecordRateLimitDecision(r.Context(), rl.class, "error", rl.window)
				w.Header().Set("Retry-After", retryAfterHeader(rl.window))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			if !allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.class, "rejected", retryAfter)
				w.Header().Set("Retry-After", retryAfterHeader(retryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.class, "allowed", 0)
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterHeader(d time.Duration) string {
	if d <= 0 {
		return "1"
	}
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}
