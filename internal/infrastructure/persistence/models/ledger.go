package models

import (
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for ledger entries.
// Rows are append-only; there is no update path.
type LedgerEntryModel struct {
	BaseModel
	UserID        uuid.UUID            `gorm:"type:uuid;not null;index:idx_ledger_user_created"`
	Type          ledger.EntryType     `gorm:"type:varchar(30);not null;index"`
	ReferenceKind ledger.ReferenceKind `gorm:"type:varchar(20);not null;index:idx_ledger_reference"`
	ReferenceID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_ledger_reference"`
	Description   string               `gorm:"type:varchar(255)"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Operation     ledger.Operation     `gorm:"type:varchar(10);not null"`
	BalanceKind   ledger.BalanceKind   `gorm:"type:varchar(20);not null"`
	BalanceBefore decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Type:       m.Type,
		Reference: ledger.Reference{
			Kind: m.ReferenceKind,
			ID:   m.ReferenceID,
		},
		Description:   m.Description,
		Amount:        m.Amount,
		Operation:     m.Operation,
		BalanceKind:   m.BalanceKind,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
	}
}

// FromDomain populates the persistence model from a domain Entry
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.UserID = e.UserID
	m.Type = e.Type
	m.ReferenceKind = e.Reference.Kind
	m.ReferenceID = e.Reference.ID
	m.Description = e.Description
	m.Amount = e.Amount
	m.Operation = e.Operation
	m.BalanceKind = e.BalanceKind
	m.BalanceBefore = e.BalanceBefore
	m.BalanceAfter = e.BalanceAfter
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain Entry
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}
