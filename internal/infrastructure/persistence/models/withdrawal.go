package models

import (
	"time"

	"github.com/chrono60/backend/internal/domain/withdrawal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalModel is the persistence model for withdrawal requests
type WithdrawalModel struct {
	AggregateModel
	UserID       uuid.UUID             `gorm:"type:uuid;not null;index:idx_withdrawal_user_requested"`
	Amount       decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	FeeAmount    decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	NetAmount    decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Status       withdrawal.Status     `gorm:"type:varchar(20);not null;index"`
	PixKey       string                `gorm:"type:varchar(100);not null"`
	PixKeyType   withdrawal.PixKeyType `gorm:"type:varchar(20);not null"`
	TransferID   string                `gorm:"type:varchar(100)"`
	RejectReason string                `gorm:"type:text"`
	RequestedAt  time.Time             `gorm:"not null;index:idx_withdrawal_user_requested"`
	ProcessedAt  *time.Time
}

// TableName returns the table name for GORM
func (WithdrawalModel) TableName() string {
	return "withdrawals"
}

// ToDomain converts the persistence model to a domain Withdrawal
func (m *WithdrawalModel) ToDomain() *withdrawal.Withdrawal {
	return &withdrawal.Withdrawal{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Amount:            m.Amount,
		FeeAmount:         m.FeeAmount,
		NetAmount:         m.NetAmount,
		Status:            m.Status,
		PixKey:            m.PixKey,
		PixKeyType:        m.PixKeyType,
		TransferID:        m.TransferID,
		RejectReason:      m.RejectReason,
		RequestedAt:       m.RequestedAt,
		ProcessedAt:       m.ProcessedAt,
	}
}

// FromDomain populates the persistence model from a domain Withdrawal
func (m *WithdrawalModel) FromDomain(w *withdrawal.Withdrawal) {
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	m.UserID = w.UserID
	m.Amount = w.Amount
	m.FeeAmount = w.FeeAmount
	m.NetAmount = w.NetAmount
	m.Status = w.Status
	m.PixKey = w.PixKey
	m.PixKeyType = w.PixKeyType
	m.TransferID = w.TransferID
	m.RejectReason = w.RejectReason
	m.RequestedAt = w.RequestedAt
	m.ProcessedAt = w.ProcessedAt
}

// WithdrawalModelFromDomain creates a new persistence model from a domain Withdrawal
func WithdrawalModelFromDomain(w *withdrawal.Withdrawal) *WithdrawalModel {
	m := &WithdrawalModel{}
	m.FromDomain(w)
	return m
}
