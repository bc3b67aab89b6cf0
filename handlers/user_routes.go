// handlers/user_routes.go
package handlers

import (
	"quest-board/middleware"
	"quest-board/models"
	"quest-board/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	secured := app.Group("/users", middleware.UserContextMiddleware())

	// Own profile with derived level/progress. Creates the row on first
	// contact, since identity lives in the Gateway.
	secured.Get("/me", func(c *fiber.Ctx) error {
		if _, err := userService.EnsureUser(userID(c), c.Get("X-User-Name"), c.Get("X-User-Email")); err != nil {
			return respondError(c, err)
		}

		progress, err := userService.GetProgress(userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(progress)
	})

	// Admin-only listing and role management, gated per route so /me above
	// stays open to every authenticated user.
	admin := middleware.RequireRole(models.RoleAdmin)

	secured.Get("/", admin, func(c *fiber.Ctx) error {
		users, err := userService.ListUsers(c.QueryInt("limit", 100))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(users)
	})

	secured.Get("/:id", admin, func(c *fiber.Ctx) error {
		progress, err := userService.GetProgress(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(progress)
	})

	secured.Patch("/:id/role", admin, func(c *fiber.Ctx) error {
		var req struct {
			Role models.UserRole `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		user, err := userService.UpdateRole(c.Params("id"), req.Role)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	})
}
