package ledger

import (
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType classifies the business event behind a ledger entry
type EntryType string

const (
	EntryTypeDeposit            EntryType = "DEPOSIT"
	EntryTypeWithdrawal         EntryType = "WITHDRAWAL"
	EntryTypeWithdrawalRefund   EntryType = "WITHDRAWAL_REFUND"
	EntryTypeInvestment         EntryType = "INVESTMENT"
	EntryTypeEarning            EntryType = "EARNING"
	EntryTypeCommission         EntryType = "COMMISSION"
	EntryTypeCommissionResidual EntryType = "COMMISSION_RESIDUAL"
	EntryTypeAdjustment         EntryType = "ADJUSTMENT"
)

// IsValid returns true if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeWithdrawal, EntryTypeWithdrawalRefund,
		EntryTypeInvestment, EntryTypeEarning, EntryTypeCommission,
		EntryTypeCommissionResidual, EntryTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// Operation is the direction of a ledger entry
type Operation string

const (
	OperationCredit Operation = "CREDIT"
	OperationDebit  Operation = "DEBIT"
)

// IsValid returns true if the operation is valid
func (o Operation) IsValid() bool {
	return o == OperationCredit || o == OperationDebit
}

// BalanceKind names which of the user's two balances an entry moved
type BalanceKind string

const (
	BalanceKindInvestable   BalanceKind = "BALANCE"
	BalanceKindWithdrawable BalanceKind = "BALANCE_WITHDRAWN"
)

// IsValid returns true if the balance kind is valid
func (k BalanceKind) IsValid() bool {
	return k == BalanceKindInvestable || k == BalanceKindWithdrawable
}

// ReferenceKind tags the entity a ledger entry originated from
type ReferenceKind string

const (
	ReferenceKindDeposit    ReferenceKind = "DEPOSIT"
	ReferenceKindWithdrawal ReferenceKind = "WITHDRAWAL"
	ReferenceKindCycle      ReferenceKind = "CYCLE"
	ReferenceKindEarning    ReferenceKind = "EARNING"
	ReferenceKindCommission ReferenceKind = "COMMISSION"
	ReferenceKindAdjustment ReferenceKind = "ADJUSTMENT"
)

// IsValid returns true if the reference kind is valid
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceKindDeposit, ReferenceKindWithdrawal, ReferenceKindCycle,
		ReferenceKindEarning, ReferenceKindCommission, ReferenceKindAdjustment:
		return true
	}
	return false
}

// Reference points at the entity that caused an entry
type Reference struct {
	Kind ReferenceKind
	ID   uuid.UUID
}

// Entry is one immutable row of the double-entry ledger. Once created,
// entries are never modified; corrections are made with new entries.
type Entry struct {
	shared.BaseEntity
	UserID        uuid.UUID
	Type          EntryType
	Reference     Reference
	Description   string
	Amount        decimal.Decimal // always positive, direction in Operation
	Operation     Operation
	BalanceKind   BalanceKind
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// NewEntry creates a ledger entry and checks the double-entry invariant:
// BalanceAfter must equal BalanceBefore adjusted by Amount in the direction
// of Operation.
func NewEntry(
	userID uuid.UUID,
	entryType EntryType,
	ref Reference,
	amount decimal.Decimal,
	op Operation,
	kind BalanceKind,
	balanceBefore decimal.Decimal,
) (*Entry, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Invalid ledger entry type")
	}
	if !ref.Kind.IsValid() || ref.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Invalid ledger reference")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !op.IsValid() {
		return nil, shared.NewDomainError("INVALID_OPERATION", "Invalid ledger operation")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_BALANCE_KIND", "Invalid balance kind")
	}

	var after decimal.Decimal
	if op == OperationCredit {
		after = balanceBefore.Add(amount)
	} else {
		after = balanceBefore.Sub(amount)
	}

	return &Entry{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		Type:          entryType,
		Reference:     ref,
		Amount:        amount,
		Operation:     op,
		BalanceKind:   kind,
		BalanceBefore: balanceBefore,
		BalanceAfter:  after,
	}, nil
}

// WithDescription sets a human-readable description on the entry
func (e *Entry) WithDescription(desc string) *Entry {
	e.Description = desc
	return e
}

// SignedAmount returns the amount with direction applied
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Operation == OperationDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Replay folds entries in order and reconstructs both balances. Entries
// must belong to a single user and be ordered oldest first.
func Replay(entries []*Entry) (balance, balanceWithdrawn decimal.Decimal) {
	balance = decimal.Zero
	balanceWithdrawn = decimal.Zero
	for _, e := range entries {
		switch e.BalanceKind {
		case BalanceKindInvestable:
			balance = balance.Add(e.SignedAmount())
		case BalanceKindWithdrawable:
			balanceWithdrawn = balanceWithdrawn.Add(e.SignedAmount())
		}
	}
	return balance, balanceWithdrawn
}
