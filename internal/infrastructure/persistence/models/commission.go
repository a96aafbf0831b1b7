package models

import (
	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionModel is the persistence model for commission rows. EarningID
// is the zero uuid for purchase commissions so one unique index covers
// both purchase idempotency (cycle, level, type) and residual idempotency
// (cycle, earning, level, type).
type CommissionModel struct {
	BaseModel
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	FromUserID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CycleID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commission_event,priority:1"`
	EarningID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commission_event,priority:2"`
	Level      int             `gorm:"not null;uniqueIndex:idx_commission_event,priority:3"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Percentage decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	Type       commission.Type `gorm:"type:varchar(30);not null;uniqueIndex:idx_commission_event,priority:4"`
}

// TableName returns the table name for GORM
func (CommissionModel) TableName() string {
	return "commissions"
}

// ToDomain converts the persistence model to a domain Commission
func (m *CommissionModel) ToDomain() *commission.Commission {
	c := &commission.Commission{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		FromUserID: m.FromUserID,
		CycleID:    m.CycleID,
		Level:      m.Level,
		Amount:     m.Amount,
		Percentage: m.Percentage,
		Type:       m.Type,
	}
	if m.EarningID != uuid.Nil {
		id := m.EarningID
		c.EarningID = &id
	}
	return c
}

// FromDomain populates the persistence model from a domain Commission
func (m *CommissionModel) FromDomain(c *commission.Commission) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
	m.FromUserID = c.FromUserID
	m.CycleID = c.CycleID
	m.EarningID = uuid.Nil
	if c.EarningID != nil {
		m.EarningID = *c.EarningID
	}
	m.Level = c.Level
	m.Amount = c.Amount
	m.Percentage = c.Percentage
	m.Type = c.Type
}

// CommissionModelFromDomain creates a new persistence model from a domain Commission
func CommissionModelFromDomain(c *commission.Commission) *CommissionModel {
	m := &CommissionModel{}
	m.FromDomain(c)
	return m
}
