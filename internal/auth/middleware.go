package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"resource-backend/internal/engine"
	"resource-backend/internal/metadata"
)

// Middleware returns a Fiber middleware that validates JWT bearer tokens and
// sets the UserContext on the request. An unauthenticated request is turned
// into an UNAUTHORIZED error envelope by the central error handler; it never
// carries notifications.
func Middleware(tokens *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		claims, err := tokens.ParseAccessToken(parts[1])
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		c.Locals("user", &metadata.UserContext{
			ID:    claims.Subject,
			Roles: claims.Roles,
		})

		return c.Next()
	}
}

// GetUser extracts the UserContext from a Fiber context.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
