package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

// RateLimit throttles the interaction endpoints per client IP. Each call
// there costs three upstream API requests. A nil storage keeps counters in
// process memory.
func RateLimit(cfg config.RateLimitingConfig, storage fiber.Storage, log *zap.Logger) fiber.Handler {
	maxRequests := cfg.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 30
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return !strings.HasPrefix(c.Path(), "/api/v1/interactions")
		},
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Warn("Rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please slow down",
			})
		},
		Storage: storage,
	})
}
