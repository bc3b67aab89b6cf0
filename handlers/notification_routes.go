// handlers/notification_routes.go
package handlers

import (
	"quest-board/middleware"
	"quest-board/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	secured := app.Group("/notifications", middleware.UserContextMiddleware())

	secured.Get("/", func(c *fiber.Ctx) error {
		notifications, err := notificationService.ListForUser(
			userID(c),
			c.QueryBool("unread", false),
			c.QueryInt("limit", 50),
		)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(notifications)
	})

	// Cheap endpoint for clients to poll.
	secured.Get("/unread-count", func(c *fiber.Ctx) error {
		count, err := notificationService.UnreadCount(userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"unread_count": count})
	})

	secured.Patch("/:id/read", func(c *fiber.Ctx) error {
		n, err := notificationService.MarkRead(c.Params("id"), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(n)
	})

	secured.Post("/read-all", func(c *fiber.Ctx) error {
		marked, err := notificationService.MarkAllRead(userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "OK", "marked_count": marked})
	})
}
