package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsEmailKey = "auth.email"

// Middleware returns a fiber handler that requires a valid Bearer token and
// stores the caller's email in the request locals.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "missing bearer token",
			})
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "invalid token",
			})
		}

		c.Locals(localsEmailKey, claims.Email)
		return c.Next()
	}
}

// EmailFromCtx returns the authenticated caller's email, or "" when the
// request did not pass the middleware.
func EmailFromCtx(c *fiber.Ctx) string {
	email, _ := c.Locals(localsEmailKey).(string)
	return email
}
