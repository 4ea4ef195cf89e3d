package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gyma/internal/models"
	"gyma/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// Rule is the request budget of one limited resource.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Usage is a caller's window after the current request was counted.
type Usage struct {
	Count   int64
	ResetIn time.Duration
}

// Allowed reports whether the counted request fits the rule.
func (u Usage) Allowed(r Rule) bool {
	return u.Count <= int64(r.Limit)
}

// Remaining is the number of requests left in the window.
func (u Usage) Remaining(r Rule) int {
	if left := int64(r.Limit) - u.Count; left > 0 {
		return int(left)
	}
	return 0
}

// limitingDisabled is true for APP_ENV "test", "development", "stress" or unset.
func limitingDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// Consume counts one request by caller against rule in a fixed window.
func Consume(ctx context.Context, rdb *redis.Client, rule Rule, caller string) (Usage, error) {
	if limitingDisabled() {
		return Usage{ResetIn: rule.Window}, nil
	}
	if rdb == nil {
		return Usage{}, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", rule.Name, caller)
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Usage{}, err
	}

	usage := Usage{Count: incr.Val(), ResetIn: ttl.Val()}
	// A key without expiry is a fresh window.
	if usage.ResetIn < 0 {
		if err := rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
			return Usage{}, err
		}
		usage.ResetIn = rule.Window
	}
	return usage, nil
}

// callerKey is the session user when one is attached, the remote IP otherwise.
func callerKey(c *fiber.Ctx) string {
	if id, ok := UserID(c); ok {
		return fmt.Sprintf("user:%d", id)
	}
	return "ip:" + c.IP()
}

// Limit enforces rule per caller. Resolve the session first to key
// authenticated routes by user.
func Limit(rdb *redis.Client, rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limitingDisabled() {
			return c.Next()
		}

		usage, err := Consume(c.UserContext(), rdb, rule, callerKey(c))
		if err != nil {
			if rule.Policy == FailClosed {
				observability.RateLimitDecisions.WithLabelValues(rule.Name, "unavailable").Inc()
				Logger.WarnContext(c.UserContext(), "rate limit unavailable, failing closed",
					slog.String("rule", rule.Name),
					slog.String("path", c.Path()),
					slog.String("error", err.Error()),
				)
				return models.Respond(c, models.NewUnavailableError("Rate limit unavailable", err))
			}
			observability.RateLimitDecisions.WithLabelValues(rule.Name, "skipped").Inc()
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(usage.Remaining(rule)))
		if !usage.Allowed(rule) {
			observability.RateLimitDecisions.WithLabelValues(rule.Name, "limited").Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int((usage.ResetIn+time.Second-1)/time.Second)))
			return models.Respond(c, models.NewRateLimitedError("Too many requests, try again later"))
		}
		observability.RateLimitDecisions.WithLabelValues(rule.Name, "allowed").Inc()
		return c.Next()
	}
}
