package member

import (
	"strings"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the member aggregate. It carries two balances: Balance is the
// investable balance funded by deposits, BalanceWithdrawn is the spendable
// balance funded by earnings and commissions and drained by withdrawals.
type User struct {
	shared.BaseAggregateRoot
	Name             string
	Email            string
	PasswordHash     string
	ReferralCode     string
	ReferredBy       *uuid.UUID
	Balance          decimal.Decimal
	BalanceWithdrawn decimal.Decimal
	TotalInvested    decimal.Decimal
	TotalEarned      decimal.Decimal
	TotalWithdrawn   decimal.Decimal
	IsAdmin          bool
}

// NewUser creates a new member account
func NewUser(name, email, passwordHash, referralCode string, referredBy *uuid.UUID) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if referralCode == "" {
		return nil, shared.NewDomainError("INVALID_REFERRAL_CODE", "Referral code cannot be empty")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		PasswordHash:      passwordHash,
		ReferralCode:      referralCode,
		ReferredBy:        referredBy,
		Balance:           decimal.Zero,
		BalanceWithdrawn:  decimal.Zero,
		TotalInvested:     decimal.Zero,
		TotalEarned:       decimal.Zero,
		TotalWithdrawn:    decimal.Zero,
	}, nil
}

// CreditBalance adds funds to the investable balance (deposits)
func (u *User) CreditBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	u.Balance = u.Balance.Add(amount)
	return nil
}

// DebitBalance removes funds from the investable balance (plan purchases)
func (u *User) DebitBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if u.Balance.LessThan(amount) {
		return shared.ErrInsufficientBalance
	}
	u.Balance = u.Balance.Sub(amount)
	return nil
}

// CreditWithdrawable adds funds to the spendable balance (earnings,
// commissions, withdrawal refunds) and tracks TotalEarned when earned is set.
func (u *User) CreditWithdrawable(amount decimal.Decimal, earned bool) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	u.BalanceWithdrawn = u.BalanceWithdrawn.Add(amount)
	if earned {
		u.TotalEarned = u.TotalEarned.Add(amount)
	}
	return nil
}

// DebitWithdrawable reserves funds from the spendable balance (withdrawals)
func (u *User) DebitWithdrawable(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if u.BalanceWithdrawn.LessThan(amount) {
		return shared.ErrInsufficientBalance
	}
	u.BalanceWithdrawn = u.BalanceWithdrawn.Sub(amount)
	return nil
}

// AdjustWithdrawable applies an administrative adjustment to the spendable
// balance. Negative adjustments clamp at zero: BalanceWithdrawn never goes
// negative. Returns the amount actually applied.
func (u *User) AdjustWithdrawable(delta decimal.Decimal) decimal.Decimal {
	if delta.IsZero() {
		return decimal.Zero
	}
	if delta.IsNegative() && u.BalanceWithdrawn.Add(delta).IsNegative() {
		applied := u.BalanceWithdrawn.Neg()
		u.BalanceWithdrawn = decimal.Zero
		return applied
	}
	u.BalanceWithdrawn = u.BalanceWithdrawn.Add(delta)
	return delta
}

// RecordInvestment tracks the denormalized invested total
func (u *User) RecordInvestment(amount decimal.Decimal) {
	u.TotalInvested = u.TotalInvested.Add(amount)
}

// RecordWithdrawal tracks the denormalized withdrawn total
func (u *User) RecordWithdrawal(amount decimal.Decimal) {
	u.TotalWithdrawn = u.TotalWithdrawn.Add(amount)
}

// UnrecordWithdrawal rolls the withdrawn total back after a rejection
func (u *User) UnrecordWithdrawal(amount decimal.Decimal) {
	u.TotalWithdrawn = u.TotalWithdrawn.Sub(amount)
	if u.TotalWithdrawn.IsNegative() {
		u.TotalWithdrawn = decimal.Zero
	}
}
