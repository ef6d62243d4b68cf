// services/errors.go
package services

import "errors"

// Ledger error taxonomy. Funds-affecting errors are surfaced to the caller
// verbatim and never accompany a partial ledger mutation.
var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrJackpotNotFound        = errors.New("jackpot not found")
	ErrJackpotNotActive       = errors.New("jackpot is not active")
	ErrJackpotAlreadySettling = errors.New("jackpot settlement already in progress")
	ErrPriceChanged           = errors.New("ticket price changed")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidState        = errors.New("transaction is not pending")

	ErrNoPayoutDestination   = errors.New("no payout destination on file")
	ErrUnresolvedDestination = errors.New("payout destination could not be resolved")
	ErrTransferRejected      = errors.New("provider rejected the transfer")
	ErrProviderTimeout       = errors.New("payment provider timed out")
)
