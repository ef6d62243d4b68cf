// handlers/jackpot_routes.go
package handlers

import (
	"time"

	"jackpot-ledger-system/middleware"
	"jackpot-ledger-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupJackpotRoutes(app *fiber.App, jackpots *services.JackpotService, tickets *services.TicketService, settlement *services.SettlementService) {
	// User-context enforcement is scoped to this prefix — never mounted at
	// root, where it would swallow unauthenticated surfaces like webhooks.
	securedGroup := app.Group("/jackpots", middleware.UserContextMiddleware())

	securedGroup.Get("/", func(c *fiber.Ctx) error {
		list, err := jackpots.ListJackpots(c.Query("status"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(list)
	})

	securedGroup.Get("/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		jackpot, err := jackpots.GetJackpot(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		mine, err := tickets.GetUserTickets(userID, jackpot.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"jackpot":    jackpot,
			"my_tickets": mine,
		})
	})

	securedGroup.Post("/:id/tickets", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Quantity int `json:"quantity" validate:"required,min=1,max=100"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		minted, err := tickets.PurchaseTickets(userID, c.Params("id"), req.Quantity)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Tickets purchased successfully",
			"tickets": minted,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/jackpots", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		var req struct {
			Name        string     `json:"name" validate:"required"`
			TicketPrice int64      `json:"ticket_price" validate:"required,min=1"`
			Frequency   string     `json:"frequency" validate:"required,oneof=hourly daily weekly monthly"`
			Recurring   *bool      `json:"recurring"`
			FirstDraw   *time.Time `json:"first_draw"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		recurring := true
		if req.Recurring != nil {
			recurring = *req.Recurring
		}

		jackpot, err := jackpots.CreateJackpot(req.Name, req.TicketPrice, req.Frequency, recurring, req.FirstDraw, adminID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(jackpot)
	})

	adminGroup.Post("/jackpots/:id/settle", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		draw, err := settlement.SettleJackpot(c.Params("id"), adminID)
		if err != nil {
			return serviceError(c, err)
		}
		if draw == nil {
			return c.JSON(fiber.Map{
				"message": "No tickets sold this cycle — draw rescheduled, no winner",
			})
		}
		return c.JSON(fiber.Map{
			"message": "Jackpot settled",
			"draw":    draw,
		})
	})

	adminGroup.Post("/jackpots/:id/pause", func(c *fiber.Ctx) error {
		if err := jackpots.SetPaused(c.Params("id"), true); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Jackpot paused"})
	})

	adminGroup.Post("/jackpots/:id/resume", func(c *fiber.Ctx) error {
		if err := jackpots.SetPaused(c.Params("id"), false); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Jackpot resumed"})
	})
}
