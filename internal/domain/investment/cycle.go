package investment

import (
	"time"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CycleStatus represents the lifecycle state of an investment cycle
type CycleStatus string

const (
	CycleStatusActive    CycleStatus = "ACTIVE"
	CycleStatusFinished  CycleStatus = "FINISHED"
	CycleStatusCancelled CycleStatus = "CANCELLED"
)

// IsValid returns true if the cycle status is valid
func (s CycleStatus) IsValid() bool {
	switch s {
	case CycleStatusActive, CycleStatusFinished, CycleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of CycleStatus
func (s CycleStatus) String() string {
	return string(s)
}

// Cycle is one user's running instance of a Plan. Amount snapshots the
// plan price at purchase time so later plan edits do not change history.
type Cycle struct {
	shared.BaseAggregateRoot
	UserID          uuid.UUID
	PlanID          uuid.UUID
	Amount          decimal.Decimal
	Status          CycleStatus
	DaysPaid        int
	TotalPaid       decimal.Decimal
	LastPaymentAt   *time.Time
	StartedAt       time.Time
	EndsAt          time.Time
	IsFirstPurchase bool
}

// NewCycle creates an ACTIVE cycle for a purchase
func NewCycle(userID uuid.UUID, plan *Plan, startedAt time.Time, isFirstPurchase bool) (*Cycle, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if plan == nil {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan cannot be nil")
	}

	return &Cycle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		PlanID:            plan.GetID(),
		Amount:            plan.Price,
		Status:            CycleStatusActive,
		DaysPaid:          0,
		TotalPaid:         decimal.Zero,
		StartedAt:         startedAt,
		EndsAt:            startedAt.AddDate(0, 0, plan.DurationDays),
		IsFirstPurchase:   isFirstPurchase,
	}, nil
}

// IsActive returns true if the cycle is still running
func (c *Cycle) IsActive() bool {
	return c.Status == CycleStatusActive
}

// IsDueDaily reports whether a DAILY cycle should be paid for the day of
// asOf: never paid yet, or last paid on a different calendar day, and the
// duration not yet exhausted.
func (c *Cycle) IsDueDaily(plan *Plan, asOf time.Time) bool {
	if c.Status != CycleStatusActive || plan.Type != PlanTypeDaily {
		return false
	}
	if c.DaysPaid >= plan.DurationDays {
		return false
	}
	if c.LastPaymentAt == nil {
		return true
	}
	ly, lm, ld := c.LastPaymentAt.UTC().Date()
	ay, am, ad := asOf.UTC().Date()
	return ly != ay || lm != am || ld != ad
}

// IsDueEnd reports whether an END_CYCLE cycle has reached its payout time
func (c *Cycle) IsDueEnd(plan *Plan, asOf time.Time) bool {
	return c.Status == CycleStatusActive && plan.Type == PlanTypeEndCycle && !asOf.Before(c.EndsAt)
}

// RecordDailyPayment applies one day's yield to the cycle counters and
// transitions to FINISHED when the duration completes.
func (c *Cycle) RecordDailyPayment(value decimal.Decimal, durationDays int, paidAt time.Time) error {
	if c.Status != CycleStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cycle is not active")
	}
	c.DaysPaid++
	c.TotalPaid = c.TotalPaid.Add(value)
	t := paidAt
	c.LastPaymentAt = &t
	if c.DaysPaid >= durationDays {
		c.Status = CycleStatusFinished
	}
	return nil
}

// Finish records the lump-sum payout of an END_CYCLE cycle
func (c *Cycle) Finish(totalPaid decimal.Decimal, paidAt time.Time) error {
	if c.Status != CycleStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cycle is not active")
	}
	c.TotalPaid = c.TotalPaid.Add(totalPaid)
	t := paidAt
	c.LastPaymentAt = &t
	c.Status = CycleStatusFinished
	return nil
}

// Cancel stops the cycle without refund
func (c *Cycle) Cancel() error {
	if c.Status != CycleStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active cycles can be cancelled")
	}
	c.Status = CycleStatusCancelled
	return nil
}
