// handlers/withdrawal_routes.go
package handlers

import (
	"jackpot-ledger-system/middleware"
	"jackpot-ledger-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWithdrawalRoutes(app *fiber.App, withdrawals *services.WithdrawalService) {
	meGroup := app.Group("/me", middleware.UserContextMiddleware())

	meGroup.Put("/payout-destination", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			BankName      string `json:"bank_name"`
			BankCode      string `json:"bank_code" validate:"required"`
			AccountNumber string `json:"account_number" validate:"required"`
			AccountName   string `json:"account_name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		dest, err := withdrawals.SavePayoutDestination(userID, req.BankName, req.BankCode, req.AccountNumber, req.AccountName)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(dest)
	})

	meGroup.Get("/payout-destination", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		dest, err := withdrawals.GetPayoutDestination(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(dest)
	})

	app.Post("/withdrawals", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int64 `json:"amount" validate:"required,min=1"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		txn, err := withdrawals.RequestWithdrawal(userID, req.Amount)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Withdrawal requested — pending payout",
			"transaction": txn,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/withdrawals/:id/payout", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		txn, err := withdrawals.PayoutWithdrawal(c.Context(), c.Params("id"), adminID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":     "Withdrawal paid out",
			"transaction": txn,
		})
	})

	adminGroup.Post("/withdrawals/:id/queue", func(c *fiber.Ctx) error {
		if err := withdrawals.QueueForPayout(c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Withdrawal queued for payout"})
	})

	adminGroup.Post("/withdrawals/payout-batch", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		var req struct {
			TransactionIDs []string `json:"transaction_ids" validate:"required,min=1"`
		}
		if err := c.BodyParser(&req); err != nil || len(req.TransactionIDs) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "transaction_ids is required"})
		}

		results := withdrawals.PayoutBatch(c.Context(), req.TransactionIDs, adminID)
		return c.JSON(fiber.Map{"results": results})
	})
}
