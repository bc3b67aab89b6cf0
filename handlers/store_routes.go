// handlers/store_routes.go
package handlers

import (
	"fmt"
	"path/filepath"

	"quest-board/middleware"
	"quest-board/models"
	"quest-board/services"
	"quest-board/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupStoreRoutes(app *fiber.App, storeService *services.StoreService) {
	secured := app.Group("/store", middleware.UserContextMiddleware())

	secured.Get("/items", func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(models.UserRole)
		includeInactive := role == models.RoleAdmin && c.QueryBool("all", false)

		items, err := storeService.ListItems(includeInactive)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	})

	secured.Get("/items/:id", func(c *fiber.Ctx) error {
		item, err := storeService.GetItem(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(item)
	})

	secured.Post("/items/:id/purchase", func(c *fiber.Ctx) error {
		txn, err := storeService.Purchase(userID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(txn)
	})

	secured.Get("/transactions", func(c *fiber.Ctx) error {
		txns, err := storeService.ListTransactions(userID(c), models.TransactionStatus(c.Query("status")))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(txns)
	})

	// Admin surface: stocking items and reviewing purchases.
	admin := secured.Group("/admin", middleware.RequireRole(models.RoleAdmin))

	admin.Post("/items", func(c *fiber.Ctx) error {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			ImageURL    string `json:"image_url"`
			Cost        int    `json:"cost"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		item, err := storeService.CreateItem(userID(c), services.CreateItemInput{
			Name:        req.Name,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Cost:        req.Cost,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	})

	// Item image upload through R2; returns the CDN URL for a follow-up
	// item create/update.
	admin.Post("/items/image", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
		}

		key := fmt.Sprintf("store/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadImage(fileHeader, key)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"image_url": url})
	})

	admin.Patch("/items/:id/active", func(c *fiber.Ctx) error {
		var req struct {
			Active bool `json:"active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		item, err := storeService.SetItemActive(c.Params("id"), req.Active)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(item)
	})

	admin.Get("/transactions", func(c *fiber.Ctx) error {
		txns, err := storeService.ListTransactions("", models.TransactionStatus(c.Query("status")))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(txns)
	})

	admin.Post("/transactions/:id/approve", func(c *fiber.Ctx) error {
		txn, err := storeService.ApproveTransaction(c.Params("id"), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(txn)
	})

	admin.Post("/transactions/:id/reject", func(c *fiber.Ctx) error {
		var req struct {
			Notes string `json:"notes"`
		}
		_ = c.BodyParser(&req)

		txn, err := storeService.RejectTransaction(c.Params("id"), userID(c), req.Notes)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(txn)
	})
}
