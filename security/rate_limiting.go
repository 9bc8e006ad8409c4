package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
	"github.com/redis/go-redis/v9"

	"event-ticketing/monitoring"
)

// RateLimiter is a fixed-window counter kept in Redis so that every
// instance shares the same budget.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{redis: redisClient, limit: limit, window: window}
}

// Allow counts one request against key and reports whether it is within budget.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = "ratelimit:" + key

	// INCR and EXPIRE NX run in one transaction so a counter never outlives its window.
	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}

	return incr.Val() <= int64(r.limit), nil
}

// Middleware limits requests per authenticated user, or per client IP for
// anonymous callers. Redis outages let requests through.
func (r *RateLimiter) Middleware(scope string) *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "rateLimit_" + scope,
		Func: func(e *core.RequestEvent) error {
			key := scope + ":" + identifier(e)

			ok, err := r.Allow(e.Request.Context(), key)
			if err != nil {
				slog.Warn("rate limiter unavailable", "scope", scope, "error", err)
				return e.Next()
			}
			if !ok {
				monitoring.TrackRateLimited(scope)
				return e.JSON(http.StatusTooManyRequests, map[string]any{
					"success": false,
					"error":   "RateLimited",
					"message": "Too many requests. Please try again later.",
				})
			}

			return e.Next()
		},
	}
}

func identifier(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "user:" + e.Auth.Id
	}
	return "ip:" + e.RealIP()
}

// AntiBot rejects clients that identify as crawlers.
func AntiBot() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "antiBot",
		Func: func(e *core.RequestEvent) error {
			if isSuspiciousUserAgent(e.Request.UserAgent()) {
				return e.JSON(http.StatusForbidden, map[string]any{
					"success": false,
					"error":   "Forbidden",
					"message": "Access denied",
				})
			}
			return e.Next()
		},
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	ua = strings.ToLower(ua)
	for _, pattern := range suspicious {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
