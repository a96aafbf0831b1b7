package commission

import (
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type distinguishes which tier table produced a commission
type Type string

const (
	TypeFirstPurchase      Type = "FIRST_PURCHASE"
	TypeSubsequentPurchase Type = "SUBSEQUENT_PURCHASE"
	TypeResidual           Type = "RESIDUAL"
)

// IsValid returns true if the commission type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeFirstPurchase, TypeSubsequentPurchase, TypeResidual:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// Commission is one upline payout. The storage layer enforces uniqueness
// of (cycle_id, level, type) for purchase commissions and
// (earning_id, level, type) for residuals, so re-running a distribution
// cannot pay the same level twice.
type Commission struct {
	shared.BaseEntity
	UserID     uuid.UUID // receiver
	FromUserID uuid.UUID // purchaser / earner
	CycleID    uuid.UUID
	EarningID  *uuid.UUID // set for residuals only
	Level      int
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Type       Type
}

// NewCommission creates a commission row for one upline level
func NewCommission(userID, fromUserID, cycleID uuid.UUID, level int, amount, percentage decimal.Decimal, commissionType Type) (*Commission, error) {
	if userID == uuid.Nil || fromUserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User IDs cannot be empty")
	}
	if cycleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CYCLE", "Cycle ID cannot be empty")
	}
	if level < 1 || level > MaxLevels {
		return nil, shared.NewDomainError("INVALID_LEVEL", "Commission level out of range")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Commission amount must be positive")
	}
	if !commissionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COMMISSION_TYPE", "Invalid commission type")
	}

	return &Commission{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		FromUserID: fromUserID,
		CycleID:    cycleID,
		Level:      level,
		Amount:     amount,
		Percentage: percentage,
		Type:       commissionType,
	}, nil
}

// ForEarning links a residual commission to the earning that produced it
func (c *Commission) ForEarning(earningID uuid.UUID) *Commission {
	id := earningID
	c.EarningID = &id
	return c
}
