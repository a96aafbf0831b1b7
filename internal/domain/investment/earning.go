package investment

import (
	"time"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningType classifies a yield payment
type EarningType string

const (
	EarningTypeDaily         EarningType = "DAILY"
	EarningTypeEndLumpSum    EarningType = "END_LUMP_SUM"
	EarningTypeCapitalReturn EarningType = "CAPITAL_RETURN"
)

// IsValid returns true if the earning type is valid
func (t EarningType) IsValid() bool {
	switch t {
	case EarningTypeDaily, EarningTypeEndLumpSum, EarningTypeCapitalReturn:
		return true
	}
	return false
}

// String returns the string representation of EarningType
func (t EarningType) String() string {
	return string(t)
}

// Earning is one yield payment of a cycle. The storage layer enforces
// uniqueness of (cycle_id, reference_date, type) so a scheduler re-run
// cannot pay the same day twice.
type Earning struct {
	shared.BaseEntity
	CycleID       uuid.UUID
	UserID        uuid.UUID
	ReferenceDate time.Time // date only, UTC midnight
	Value         decimal.Decimal
	Type          EarningType
	IsPaid        bool
}

// NewEarning creates an earning for the calendar day of referenceDate
func NewEarning(cycleID, userID uuid.UUID, referenceDate time.Time, value decimal.Decimal, earningType EarningType) (*Earning, error) {
	if cycleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CYCLE", "Cycle ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !value.IsPositive() {
		return nil, shared.NewDomainError("INVALID_VALUE", "Earning value must be positive")
	}
	if !earningType.IsValid() {
		return nil, shared.NewDomainError("INVALID_EARNING_TYPE", "Invalid earning type")
	}

	y, m, d := referenceDate.UTC().Date()
	return &Earning{
		BaseEntity:    shared.NewBaseEntity(),
		CycleID:       cycleID,
		UserID:        userID,
		ReferenceDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Value:         value,
		Type:          earningType,
		IsPaid:        true,
	}, nil
}
