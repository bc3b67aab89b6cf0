package middleware

import (
	"log"

	"quest-board/models"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the verified identity set by the Gateway
// (X-User-ID, X-User-Role) and attaches it to the request context. Routes
// behind this middleware can trust both values; the core services never
// parse tokens themselves.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		role := models.UserRole(c.Get("X-User-Role"))
		switch role {
		case models.RoleAdmin, models.RoleEditor, models.RolePlayer:
		default:
			role = models.RolePlayer
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	}
}

// RequireRole gates a route to the given roles. Apply after
// UserContextMiddleware.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(models.UserRole)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		log.Printf("🚫 [USER_CTX] Role %s denied for %s", role, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient role for this operation",
		})
	}
}
