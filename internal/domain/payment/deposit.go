package payment

import (
	"time"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus represents the reconciliation state of a deposit
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "PENDING"
	DepositStatusPaid      DepositStatus = "PAID"
	DepositStatusExpired   DepositStatus = "EXPIRED"
	DepositStatusCancelled DepositStatus = "CANCELLED"
)

// IsValid returns true if the deposit status is valid
func (s DepositStatus) IsValid() bool {
	switch s {
	case DepositStatusPending, DepositStatusPaid, DepositStatusExpired, DepositStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DepositStatus
func (s DepositStatus) String() string {
	return string(s)
}

// Deposit is a PIX charge awaiting confirmation. TransactionID is the
// provider's external id and is unique; a deposit transitions to PAID
// exactly once, whichever of webhook or manual reconciliation runs first.
type Deposit struct {
	shared.BaseAggregateRoot
	UserID        uuid.UUID
	Amount        decimal.Decimal
	Status        DepositStatus
	TransactionID string
	QRCode        string
	QRCodeText    string
	PaidAt        *time.Time
	ExpiresAt     time.Time
}

// NewDeposit creates a PENDING deposit for a provider charge
func NewDeposit(userID uuid.UUID, amount decimal.Decimal, transactionID string, expiresAt time.Time) (*Deposit, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}
	if transactionID == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}

	return &Deposit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Amount:            amount,
		Status:            DepositStatusPending,
		TransactionID:     transactionID,
		ExpiresAt:         expiresAt,
	}, nil
}

// IsPaid returns true if the deposit was already credited
func (d *Deposit) IsPaid() bool {
	return d.Status == DepositStatusPaid
}

// MarkPaid transitions the deposit to PAID. Returns ErrInvalidState when
// the deposit is not PENDING so callers can detect the already-settled
// case and no-op instead of double-crediting.
func (d *Deposit) MarkPaid(at time.Time) error {
	if d.Status != DepositStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Deposit is not pending")
	}
	d.Status = DepositStatusPaid
	t := at
	d.PaidAt = &t
	return nil
}

// MarkExpired transitions a PENDING deposit past its deadline to EXPIRED
func (d *Deposit) MarkExpired() error {
	if d.Status != DepositStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Deposit is not pending")
	}
	d.Status = DepositStatusExpired
	return nil
}

// MarkCancelled transitions a PENDING deposit to CANCELLED
func (d *Deposit) MarkCancelled() error {
	if d.Status != DepositStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Deposit is not pending")
	}
	d.Status = DepositStatusCancelled
	return nil
}
