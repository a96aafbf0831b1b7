package withdrawal

import (
	"time"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a withdrawal request
type Status string

const (
	StatusRequested  Status = "REQUESTED"
	StatusApproved   Status = "APPROVED"
	StatusProcessing Status = "PROCESSING"
	StatusPaid       Status = "PAID"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid returns true if the withdrawal status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusProcessing, StatusPaid, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Withdrawal is an admitted payout request. Amount is what the user gave
// up, FeeAmount the house cut, NetAmount what the PIX transfer pays;
// NetAmount + FeeAmount == Amount always.
type Withdrawal struct {
	shared.BaseAggregateRoot
	UserID       uuid.UUID
	Amount       decimal.Decimal
	FeeAmount    decimal.Decimal
	NetAmount    decimal.Decimal
	Status       Status
	PixKey       string
	PixKeyType   PixKeyType
	TransferID   string
	RejectReason string
	RequestedAt  time.Time
	ProcessedAt  *time.Time
}

// NewWithdrawal creates a REQUESTED withdrawal, computing the fee as
// round(amount * feePercent / 100, 2) half-up.
func NewWithdrawal(userID uuid.UUID, amount decimal.Decimal, feePercent decimal.Decimal, pixKey string, keyType PixKeyType, requestedAt time.Time) (*Withdrawal, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	if err := ValidatePixKey(pixKey, keyType); err != nil {
		return nil, err
	}

	fee := amount.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
	return &Withdrawal{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Amount:            amount,
		FeeAmount:         fee,
		NetAmount:         amount.Sub(fee),
		Status:            StatusRequested,
		PixKey:            pixKey,
		PixKeyType:        keyType,
		RequestedAt:       requestedAt,
	}, nil
}

// Approve admits the withdrawal into the payout pipeline
func (w *Withdrawal) Approve(at time.Time) error {
	if w.Status != StatusRequested {
		return shared.NewDomainError("INVALID_STATE", "Only requested withdrawals can be approved")
	}
	w.Status = StatusApproved
	t := at
	w.ProcessedAt = &t
	return nil
}

// BeginProcessing marks the provider transfer as in flight. A withdrawal
// left in PROCESSING by a crash stays visible for manual follow-up.
func (w *Withdrawal) BeginProcessing() error {
	if w.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved withdrawals can start processing")
	}
	w.Status = StatusProcessing
	return nil
}

// Reject refuses the withdrawal, allowed from REQUESTED or APPROVED. The
// caller refunds the debited amount.
func (w *Withdrawal) Reject(reason string, at time.Time) error {
	if w.Status != StatusRequested && w.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only requested or approved withdrawals can be rejected")
	}
	w.Status = StatusRejected
	w.RejectReason = reason
	t := at
	w.ProcessedAt = &t
	return nil
}

// MarkPaid records the completed provider transfer
func (w *Withdrawal) MarkPaid(transferID string, at time.Time) error {
	if w.Status != StatusApproved && w.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only approved or processing withdrawals can be marked paid")
	}
	w.Status = StatusPaid
	w.TransferID = transferID
	t := at
	w.ProcessedAt = &t
	return nil
}

// CountsTowardDailyLimit reports whether this withdrawal consumes the
// user's daily allowance. Rejected and cancelled requests give the day
// back.
func (w *Withdrawal) CountsTowardDailyLimit() bool {
	return w.Status != StatusRejected && w.Status != StatusCancelled
}
