// handlers/job_routes.go
package handlers

import (
	"errors"

	"quest-board/middleware"
	"quest-board/models"
	"quest-board/services"
	"quest-board/workers"

	"github.com/gofiber/fiber/v2"
)

func SetupJobRoutes(app *fiber.App, scheduler *workers.Scheduler) {
	// Scheduler introspection and control, admins only.
	admin := app.Group("/jobs",
		middleware.UserContextMiddleware(),
		middleware.RequireRole(models.RoleAdmin),
	)

	admin.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(scheduler.GetAllJobStatuses())
	})

	admin.Get("/:name", func(c *fiber.Ctx) error {
		status, err := scheduler.GetJobStatus(c.Params("name"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(status)
	})

	// Synchronous run: handler errors come back to the caller, unlike
	// scheduled firings which only land in the status record.
	admin.Post("/:name/trigger", func(c *fiber.Ctx) error {
		name := c.Params("name")
		if err := scheduler.TriggerJob(name); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "job execution failed",
				"cause": err.Error(),
			})
		}

		status, err := scheduler.GetJobStatus(name)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Job executed successfully", "status": status})
	})

	admin.Delete("/:name", func(c *fiber.Ctx) error {
		if err := scheduler.StopJob(c.Params("name")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Job stopped and removed"})
	})

	admin.Delete("/", func(c *fiber.Ctx) error {
		if err := scheduler.StopAllJobs(); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "All jobs stopped"})
	})
}
