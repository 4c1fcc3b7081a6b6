package api

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const defaultUploadRatePerMin = 10

// rateLimit gates a route at perMin requests per minute, with a burst of the
// same size. Uploads are expensive enough to deserve it. A zero or negative
// limit would lock the route shut, so it falls back to the default.
func rateLimit(perMin int) fiber.Handler {
	if perMin <= 0 {
		perMin = defaultUploadRatePerMin
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "too many uploads, slow down",
			})
		}
		return c.Next()
	}
}
