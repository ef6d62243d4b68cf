// services/payment_provider.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"jackpot-ledger-system/models"
)

// ChargeStatus is the provider's verdict on a charge reference.
type ChargeStatus struct {
	Success bool  `json:"success"`
	Amount  int64 `json:"amount"`
}

// TransferResult is the provider's verdict on an outbound transfer.
type TransferResult struct {
	Success     bool   `json:"success"`
	ProviderRef string `json:"provider_ref"`
	Message     string `json:"message"`
}

// PaymentProvider abstracts the external funds gateway. The ledger never
// talks HTTP directly — it goes through this interface, so payouts are
// testable and the gateway is swappable.
type PaymentProvider interface {
	InitializeCharge(ctx context.Context, amount int64, payerRef string) (paymentURL string, err error)
	VerifyCharge(ctx context.Context, reference string) (*ChargeStatus, error)
	ResolveRecipient(ctx context.Context, dest *models.PayoutDestination) (recipientHandle string, err error)
	InitiateTransfer(ctx context.Context, recipient string, amount int64, reference string) (*TransferResult, error)
}

// HTTPPaymentProvider talks to the payment gateway service over JSON.
type HTTPPaymentProvider struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPPaymentProvider(baseURL, token string) *HTTPPaymentProvider {
	return &HTTPPaymentProvider{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *HTTPPaymentProvider) postJSON(ctx context.Context, path string, reqBody, out interface{}) error {
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.Token)

	resp, err := p.Client.Do(req)
	if err != nil {
		// Network I/O is bounded; a timeout surfaces as a typed error so the
		// caller can leave the ledger untouched and retry later.
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return ErrProviderTimeout
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrProviderTimeout
		}
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("PaymentProvider %s returned %d: %s", path, resp.StatusCode, string(body))
		return fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

func (p *HTTPPaymentProvider) InitializeCharge(ctx context.Context, amount int64, payerRef string) (string, error) {
	var out struct {
		PaymentURL string `json:"payment_url"`
	}
	err := p.postJSON(ctx, "/charges/initialize", map[string]interface{}{
		"amount":    amount,
		"payer_ref": payerRef,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.PaymentURL, nil
}

func (p *HTTPPaymentProvider) VerifyCharge(ctx context.Context, reference string) (*ChargeStatus, error) {
	var out ChargeStatus
	err := p.postJSON(ctx, "/charges/verify", map[string]interface{}{
		"reference": reference,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *HTTPPaymentProvider) ResolveRecipient(ctx context.Context, dest *models.PayoutDestination) (string, error) {
	var out struct {
		RecipientHandle string `json:"recipient_handle"`
	}
	err := p.postJSON(ctx, "/recipients/resolve", map[string]interface{}{
		"bank_code":      dest.BankCode,
		"account_number": dest.AccountNumber,
		"account_name":   dest.AccountName,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.RecipientHandle == "" {
		return "", ErrUnresolvedDestination
	}
	return out.RecipientHandle, nil
}

func (p *HTTPPaymentProvider) InitiateTransfer(ctx context.Context, recipient string, amount int64, reference string) (*TransferResult, error) {
	var out TransferResult
	err := p.postJSON(ctx, "/transfers", map[string]interface{}{
		"recipient": recipient,
		"amount":    amount,
		"reference": reference,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
