package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"lims-backend/internal/engine"
)

// Middleware returns a Fiber middleware that verifies the bearer token
// and stores the resolved identity on the request. Missing, invalid and
// expired tokens all short-circuit with 401 before the handler runs.
func Middleware(ts *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		username, err := ts.Parse(parts[1])
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		engine.SetIdentity(c, username)
		return c.Next()
	}
}
