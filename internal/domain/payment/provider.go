package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeRequest asks the provider to create a PIX charge
type ChargeRequest struct {
	Amount       decimal.Decimal
	PayerName    string
	PayerEmail   string
	PayerTaxID   string
	CallbackURL  string
	ExpiresAfter time.Duration
}

// ChargeResponse is the provider's answer to a charge request
type ChargeResponse struct {
	TransactionID string
	QRCode        string
	QRCodeText    string
	ExpiresAt     time.Time
}

// TransferRequest asks the provider to pay out to a PIX key
type TransferRequest struct {
	Amount      decimal.Decimal
	PixKey      string
	PixKeyType  string
	OwnerName   string
	OwnerTaxID  string
	Description string
}

// TransferResponse is the provider's answer to a transfer request
type TransferResponse struct {
	TransferID string
	Status     string
}

// PixProvider is the outbound port to the PIX payment provider. Calls may
// take seconds and must never run inside a database transaction.
type PixProvider interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error)
}
