package investment

import (
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PlanType determines how a plan pays out
type PlanType string

const (
	// PlanTypeDaily credits daily_income once per calendar day
	PlanTypeDaily PlanType = "DAILY"
	// PlanTypeEndCycle pays the full total_return at ends_at
	PlanTypeEndCycle PlanType = "END_CYCLE"
)

// IsValid returns true if the plan type is valid
func (t PlanType) IsValid() bool {
	return t == PlanTypeDaily || t == PlanTypeEndCycle
}

// String returns the string representation of PlanType
func (t PlanType) String() string {
	return string(t)
}

// Plan is an investment product template. Price is the principal,
// DailyIncome is paid per settled day for DAILY plans, TotalReturn is the
// full amount a completed cycle pays out including the principal.
// MaxPurchases limits concurrent ACTIVE cycles per user (0 = unlimited).
type Plan struct {
	shared.BaseAggregateRoot
	Name         string
	Description  string
	Type         PlanType
	Price        decimal.Decimal
	DailyIncome  decimal.Decimal // zero for END_CYCLE plans
	DurationDays int
	TotalReturn  decimal.Decimal
	MaxPurchases int
	IsActive     bool
	SortOrder    int
}

// NewPlan creates a plan and validates its economics
func NewPlan(name string, planType PlanType, price, dailyIncome decimal.Decimal, durationDays int, totalReturn decimal.Decimal, maxPurchases int) (*Plan, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Plan name cannot be empty")
	}
	if !planType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLAN_TYPE", "Invalid plan type")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Plan price must be positive")
	}
	if planType == PlanTypeDaily && !dailyIncome.IsPositive() {
		return nil, shared.NewDomainError("INVALID_DAILY_INCOME", "Daily income must be positive for daily plans")
	}
	if durationDays <= 0 {
		return nil, shared.NewDomainError("INVALID_DURATION", "Duration days must be positive")
	}
	if totalReturn.LessThan(price) {
		return nil, shared.NewDomainError("INVALID_TOTAL_RETURN", "Total return cannot be less than the principal")
	}
	if maxPurchases < 0 {
		return nil, shared.NewDomainError("INVALID_MAX_PURCHASES", "Max purchases cannot be negative")
	}

	return &Plan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              planType,
		Price:             price,
		DailyIncome:       dailyIncome,
		DurationDays:      durationDays,
		TotalReturn:       totalReturn,
		MaxPurchases:      maxPurchases,
		IsActive:          true,
	}, nil
}

// Activate makes the plan purchasable
func (p *Plan) Activate() {
	p.IsActive = true
}

// Deactivate withdraws the plan from sale. Running cycles are unaffected.
func (p *Plan) Deactivate() {
	p.IsActive = false
}

// Profit is the return above the principal for a completed cycle
func (p *Plan) Profit() decimal.Decimal {
	return p.TotalReturn.Sub(p.Price)
}
