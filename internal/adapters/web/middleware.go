package web

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/nicnocquee/spanduck/internal/metrics"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// RateLimiter tracks generation requests per IP over a sliding window.
type RateLimiter struct {
	hits   map[string][]time.Time
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow records a request from ip and reports whether it is within the limit.
// Rejected requests are not recorded.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := pruned(rl.hits[ip], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.hits[ip] = recent
		return false
	}
	rl.hits[ip] = append(recent, now)
	return true
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.Allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rl.window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(Response{
				Message: "Too many requests",
				Error:   "rate limit exceeded, try again later",
			})
		}
		return c.Next()
	}
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-rl.window)
			for ip, timestamps := range rl.hits {
				if recent := pruned(timestamps, cutoff); len(recent) == 0 {
					delete(rl.hits, ip)
				} else {
					rl.hits[ip] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}

func pruned(timestamps []time.Time, cutoff time.Time) []time.Time {
	recent := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// RequestIDConfig returns the configuration for Fiber's requestid middleware.
func RequestIDConfig() requestid.Config {
	return requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: "requestid",
	}
}

// RequestIDToContextMiddleware bridges Fiber's requestid to pkg/log context.
// Must be used after requestid.New().
func RequestIDToContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			c.SetUserContext(log.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// RequestLoggerMiddleware logs HTTP requests in structured JSON format.
// Must be used after RequestIDToContextMiddleware.
func RequestLoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		ctx := c.UserContext()
		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"ip", c.IP(),
			"user_agent", c.Get(fiber.HeaderUserAgent),
		}
		if err != nil {
			fields = append(fields, "error", err.Error())
		}

		switch {
		case status >= 500:
			log.GlobalErrorCtx(ctx, "request completed", fields...)
		case status >= 400:
			log.GlobalWarnCtx(ctx, "request completed", fields...)
		default:
			log.GlobalInfoCtx(ctx, "request completed", fields...)
		}
		return err
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" || route == "/" && c.Path() != "/" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Method(), route, strconv.Itoa(c.Response().StatusCode()), time.Since(start).Seconds())
		return err
	}
}
