package models

import (
	"time"

	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositModel is the persistence model for deposits
type DepositModel struct {
	AggregateModel
	UserID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Status        payment.DepositStatus `gorm:"type:varchar(20);not null;index"`
	TransactionID string                `gorm:"type:varchar(100);not null;uniqueIndex"`
	QRCode        string                `gorm:"type:text"`
	QRCodeText    string                `gorm:"type:text"`
	PaidAt        *time.Time
	ExpiresAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DepositModel) TableName() string {
	return "deposits"
}

// ToDomain converts the persistence model to a domain Deposit
func (m *DepositModel) ToDomain() *payment.Deposit {
	return &payment.Deposit{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Amount:            m.Amount,
		Status:            m.Status,
		TransactionID:     m.TransactionID,
		QRCode:            m.QRCode,
		QRCodeText:        m.QRCodeText,
		PaidAt:            m.PaidAt,
		ExpiresAt:         m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain Deposit
func (m *DepositModel) FromDomain(d *payment.Deposit) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.UserID = d.UserID
	m.Amount = d.Amount
	m.Status = d.Status
	m.TransactionID = d.TransactionID
	m.QRCode = d.QRCode
	m.QRCodeText = d.QRCodeText
	m.PaidAt = d.PaidAt
	m.ExpiresAt = d.ExpiresAt
}

// DepositModelFromDomain creates a new persistence model from a domain Deposit
func DepositModelFromDomain(d *payment.Deposit) *DepositModel {
	m := &DepositModel{}
	m.FromDomain(d)
	return m
}

// WebhookEventModel is the persistence model for webhook deliveries. The
// unique idempotency hash enforces at-most-once processing.
type WebhookEventModel struct {
	BaseModel
	Provider        string                `gorm:"type:varchar(50);not null"`
	ExternalID      string                `gorm:"type:varchar(100);index"`
	IdempotencyHash string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Payload         string                `gorm:"type:text"`
	Status          payment.WebhookStatus `gorm:"type:varchar(30);not null;index"`
	DepositID       *uuid.UUID            `gorm:"type:uuid;index"`
	ErrorMessage    string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToDomain converts the persistence model to a domain WebhookEvent
func (m *WebhookEventModel) ToDomain() *payment.WebhookEvent {
	return &payment.WebhookEvent{
		BaseEntity:      m.BaseModel.ToDomain(),
		Provider:        m.Provider,
		ExternalID:      m.ExternalID,
		IdempotencyHash: m.IdempotencyHash,
		Payload:         m.Payload,
		Status:          m.Status,
		DepositID:       m.DepositID,
		ErrorMessage:    m.ErrorMessage,
	}
}

// FromDomain populates the persistence model from a domain WebhookEvent
func (m *WebhookEventModel) FromDomain(e *payment.WebhookEvent) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.Provider = e.Provider
	m.ExternalID = e.ExternalID
	m.IdempotencyHash = e.IdempotencyHash
	m.Payload = e.Payload
	m.Status = e.Status
	m.DepositID = e.DepositID
	m.ErrorMessage = e.ErrorMessage
}

// WebhookEventModelFromDomain creates a new persistence model from a domain WebhookEvent
func WebhookEventModelFromDomain(e *payment.WebhookEvent) *WebhookEventModel {
	m := &WebhookEventModel{}
	m.FromDomain(e)
	return m
}
