// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"jackpot-ledger-system/middleware"
	"jackpot-ledger-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App, progression *services.ProgressionService) {
	meGroup := app.Group("/me", middleware.UserContextMiddleware())

	meGroup.Get("/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prog, err := progression.EnsureProgressRecord(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress record",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"id":               prog.ID,
			"xp":               prog.TotalXP,
			"level":            prog.Level,
			"rank":             prog.Rank,
			"rank_name":        rankName(prog.Rank),
			"total_tickets":    prog.TotalTickets,
			"total_wins":       prog.TotalWins,
			"last_level_up_at": prog.LastLevelUpAt,
			"last_rank_up_at":  prog.LastRankUpAt,
		})
	})

	app.Get("/leaderboard", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		top, err := progression.GetLeaderboard(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}

		response := make([]fiber.Map, 0, len(top))
		for i, prog := range top {
			response = append(response, fiber.Map{
				"position":   i + 1,
				"user_id":    prog.ExternalUserID,
				"xp":         prog.TotalXP,
				"level":      prog.Level,
				"rank_name":  rankName(prog.Rank),
				"total_wins": prog.TotalWins,
			})
		}
		return c.JSON(response)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			XP     int64  `json:"xp" validate:"required,min=1"`
			Reason string `json:"reason" validate:"max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.UserID == "" || req.XP < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and a positive xp are required"})
		}

		prog, err := progression.AwardXP(req.UserID, req.XP, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP award failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":  "XP granted successfully",
			"progress": prog,
		})
	})
}

func rankName(rank int) string {
	switch rank {
	case 1:
		return "Bronze"
	case 2:
		return "Silver"
	case 3:
		return "Gold"
	case 4:
		return "Platinum"
	case 5:
		return "Diamond"
	default:
		if rank > 5 {
			return "Legend"
		}
		return "Bronze"
	}
}
