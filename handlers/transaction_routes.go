// handlers/transaction_routes.go
package handlers

import (
	"strconv"

	"jackpot-ledger-system/middleware"
	"jackpot-ledger-system/models"
	"jackpot-ledger-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTransactionRoutes(app *fiber.App, transactions *services.TransactionService, wallets *services.WalletService) {
	// Scoped to /me — the payment webhook below must stay reachable without
	// user context.
	meGroup := app.Group("/me", middleware.UserContextMiddleware())

	meGroup.Get("/wallet", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		wallet, err := wallets.EnsureWallet(userID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(wallet)
	})

	meGroup.Get("/transactions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		txns, err := transactions.GetUserTransactions(userID, limit)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(txns)
	})

	app.Post("/deposits", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int64 `json:"amount" validate:"required,min=1"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		txn, paymentURL, err := transactions.InitializeDeposit(c.Context(), userID, req.Amount)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"transaction": txn,
			"payment_url": paymentURL,
		})
	})

	// Provider webhook — gateway-authenticated only, no user context. The
	// same reference may be delivered more than once; processing is
	// idempotent.
	app.Post("/webhooks/payment", func(c *fiber.Ctx) error {
		var req struct {
			Reference string `json:"reference" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil || req.Reference == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reference is required"})
		}

		if err := transactions.ProcessChargeWebhook(c.Context(), req.Reference); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/transactions/:id/resolve", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		var req struct {
			Action string `json:"action" validate:"required,oneof=approve reject"`
			Note   string `json:"note" validate:"max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		txn, err := transactions.ResolveTransaction(c.Params("id"), req.Action, adminID, req.Note)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":     "Transaction resolved",
			"transaction": txn,
		})
	})

	adminGroup.Get("/platform/balances", func(c *fiber.Ctx) error {
		commission, err := wallets.GetPlatformBalance(models.PlatformAccountPrizeCommission)
		if err != nil {
			return serviceError(c, err)
		}
		fees, err := wallets.GetPlatformBalance(models.PlatformAccountWithdrawalFees)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			models.PlatformAccountPrizeCommission: commission,
			models.PlatformAccountWithdrawalFees:  fees,
		})
	})
}
