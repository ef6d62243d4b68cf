// handlers/errors.go
package handlers

import (
	"errors"

	"jackpot-ledger-system/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps the ledger error taxonomy onto HTTP responses. Funds
// errors carry enough detail to show the user; payout errors distinguish
// "go add a destination" from "contact support, funds untouched".
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrJackpotNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "insufficient wallet balance"})

	case errors.Is(err, services.ErrJackpotNotActive),
		errors.Is(err, services.ErrJackpotAlreadySettling),
		errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrPriceChanged):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "ticket price changed — refresh and try again",
		})

	case errors.Is(err, services.ErrNoPayoutDestination):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "no payout destination on file — add your bank details first",
		})

	case errors.Is(err, services.ErrUnresolvedDestination):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrTransferRejected):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrProviderTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "payment provider timed out — the request was not applied, try again",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
