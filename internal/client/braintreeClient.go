package client

import (
	"context"
	"fmt"

	"canx-backend/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

type BraintreeClient interface {
	// ChargeOneTime settles a card payment for amount using a nonce from the drop-in UI.
	ChargeOneTime(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (string, error)
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// braintreeAmount converts to braintree's fixed point decimal with two places.
func braintreeAmount(amount decimal.Decimal) *braintree.Decimal {
	return braintree.NewDecimal(amount.Shift(2).Round(0).IntPart(), 2)
}

func (c *braintreeClientImpl) ChargeOneTime(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (string, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintreeAmount(amount),
		PaymentMethodNonce: nonce,
		OrderId:            orderNumber,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined || tx.Status == braintree.TransactionStatusGatewayRejected {
		return "", fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	}

	return tx.Id, nil
}
