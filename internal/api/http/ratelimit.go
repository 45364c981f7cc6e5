package http

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// WindowLimiter is a fixed window counter shared through Redis, so every
// instance sees the same budget per client IP. Redis failures let the
// request through.
type WindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
}

// NewWindowLimiter builds the limiter. A nil client or a non positive limit
// disables it.
func NewWindowLimiter(client *redis.Client, limit int, window time.Duration, prefix string, logger *zap.Logger) *WindowLimiter {
	return &WindowLimiter{client: client, limit: limit, window: window, prefix: prefix, logger: logger}
}

// Handle counts the request and rejects it once the window is used up.
func (l *WindowLimiter) Handle(c *fiber.Ctx) error {
	if l == nil || l.client == nil || l.limit <= 0 {
		return c.Next()
	}

	key := fmt.Sprintf("%s:%s", l.prefix, c.IP())
	count, ttl, err := l.hit(c.UserContext(), key)
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return c.Next()
	}
	if count > int64(l.limit) {
		retryAfter := int(math.Ceil(ttl.Seconds()))
		if retryAfter <= 0 {
			retryAfter = int(l.window.Seconds())
		}
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.String("path", c.Path()),
			zap.Int("retry_after", retryAfter))
		return apperrors.NewRateLimited(retryAfter)
	}
	return c.Next()
}

func (l *WindowLimiter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, 0, err
		}
		return count, l.window, nil
	}
	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// the key lost its expiry, e.g. a crash between INCR and EXPIRE
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = l.window
	}
	return count, ttl, nil
}

// IPLimiter is an in-process token bucket per client IP.
type IPLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
	logger      *zap.Logger
}

// NewIPLimiter allows requests per window for every IP, all available as a burst.
func NewIPLimiter(requests int, window time.Duration, logger *zap.Logger) *IPLimiter {
	if requests <= 0 {
		return nil
	}
	return &IPLimiter{
		rate:        rate.Limit(float64(requests) / window.Seconds()),
		burst:       requests,
		lastCleanup: time.Now(),
		logger:      logger,
	}
}

// Handle rejects the request when the caller's bucket is empty.
func (l *IPLimiter) Handle(c *fiber.Ctx) error {
	if l == nil {
		return c.Next()
	}
	limiter := l.get(c.IP())
	if !limiter.Allow() {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		retryAfter := max(int(math.Ceil(delay.Seconds())), 1)
		l.logger.Warn("rate limit exceeded",
			zap.String("ip", c.IP()),
			zap.String("path", c.Path()),
			zap.Int("retry_after", retryAfter))
		return apperrors.NewRateLimited(retryAfter)
	}
	return c.Next()
}

func (l *IPLimiter) get(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters, i.e. those with a full bucket.
func (l *IPLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCleanup) < 5*time.Minute {
		return
	}
	l.lastCleanup = time.Now()
	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}
