// handlers/quest_routes.go
package handlers

import (
	"quest-board/middleware"
	"quest-board/models"
	"quest-board/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuestRoutes(app *fiber.App, questService *services.QuestService) {
	// 🔐 All quest routes require user context from the Gateway.
	secured := app.Group("/quests", middleware.UserContextMiddleware())

	secured.Get("/", func(c *fiber.Ctx) error {
		status := models.QuestStatus(c.Query("status"))
		limit := c.QueryInt("limit", 100)

		quests, err := questService.ListQuests(status, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quests)
	})

	secured.Get("/:id", func(c *fiber.Ctx) error {
		quest, err := questService.GetQuest(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})

	// Authoring and review are gated per route so the player lifecycle
	// routes below stay open to everyone with a user context.
	editors := middleware.RequireRole(models.RoleAdmin, models.RoleEditor)

	secured.Post("/", editors, func(c *fiber.Ctx) error {
		var req struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ImageURL     string `json:"image_url"`
			Bounty       int    `json:"bounty"`
			IsRepeatable bool   `json:"is_repeatable"`
			CooldownDays *int   `json:"cooldown_days"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		quest, err := questService.CreateQuest(userID(c), services.CreateQuestInput{
			Title:        req.Title,
			Description:  req.Description,
			ImageURL:     req.ImageURL,
			Bounty:       req.Bounty,
			IsRepeatable: req.IsRepeatable,
			CooldownDays: req.CooldownDays,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(quest)
	})

	secured.Put("/:id", editors, func(c *fiber.Ctx) error {
		var req struct {
			Title        *string `json:"title"`
			Description  *string `json:"description"`
			ImageURL     *string `json:"image_url"`
			Bounty       *int    `json:"bounty"`
			CooldownDays *int    `json:"cooldown_days"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		quest, err := questService.UpdateQuest(c.Params("id"), services.UpdateQuestInput{
			Title:        req.Title,
			Description:  req.Description,
			ImageURL:     req.ImageURL,
			Bounty:       req.Bounty,
			CooldownDays: req.CooldownDays,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})

	secured.Delete("/:id", editors, func(c *fiber.Ctx) error {
		if err := questService.DeleteQuest(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Quest deleted successfully"})
	})

	// Lifecycle transitions.
	secured.Post("/:id/claim", func(c *fiber.Ctx) error {
		quest, err := questService.ClaimQuest(c.Params("id"), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})

	secured.Post("/:id/complete", func(c *fiber.Ctx) error {
		quest, err := questService.CompleteQuest(c.Params("id"), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})

	secured.Post("/:id/approve", editors, func(c *fiber.Ctx) error {
		quest, err := questService.ApproveQuest(c.Params("id"), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})

	secured.Post("/:id/reject", editors, func(c *fiber.Ctx) error {
		var req struct {
			Notes string `json:"notes"`
		}
		// Body is optional on reject.
		_ = c.BodyParser(&req)

		quest, err := questService.RejectQuest(c.Params("id"), userID(c), req.Notes)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})

	secured.Post("/:id/reset", middleware.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		quest, err := questService.ResetQuest(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(quest)
	})
}
