package auth

import (
	"github.com/gofiber/fiber/v2"

	"quickchat/internal/model"
	"quickchat/internal/store"
)

const localsUserKey = "user"

// Middleware resolves the opaque token header to a user record and
// attaches it to the request, or rejects with 401.
func Middleware(tokens *JWT, users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"success": false, "message": "missing token"})
		}
		claims, err := tokens.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"success": false, "message": "invalid token"})
		}
		user, err := users.GetByUUID(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"success": false, "message": "user not found"})
		}
		c.Locals(localsUserKey, user)
		return c.Next()
	}
}

// UserFrom returns the authenticated user attached by Middleware.
func UserFrom(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(localsUserKey).(*model.User)
	return user
}
