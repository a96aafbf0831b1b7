package models

import (
	"time"

	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanModel is the persistence model for investment plans
type PlanModel struct {
	AggregateModel
	Name         string              `gorm:"type:varchar(100);not null"`
	Description  string              `gorm:"type:text"`
	Type         investment.PlanType `gorm:"type:varchar(20);not null"`
	Price        decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	DailyIncome  decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	DurationDays int                 `gorm:"not null"`
	TotalReturn  decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	MaxPurchases int                 `gorm:"not null;default:0"`
	IsActive     bool                `gorm:"not null;default:true;index"`
	SortOrder    int                 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan
func (m *PlanModel) ToDomain() *investment.Plan {
	return &investment.Plan{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Type:              m.Type,
		Price:             m.Price,
		DailyIncome:       m.DailyIncome,
		DurationDays:      m.DurationDays,
		TotalReturn:       m.TotalReturn,
		MaxPurchases:      m.MaxPurchases,
		IsActive:          m.IsActive,
		SortOrder:         m.SortOrder,
	}
}

// FromDomain populates the persistence model from a domain Plan
func (m *PlanModel) FromDomain(p *investment.Plan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Type = p.Type
	m.Price = p.Price
	m.DailyIncome = p.DailyIncome
	m.DurationDays = p.DurationDays
	m.TotalReturn = p.TotalReturn
	m.MaxPurchases = p.MaxPurchases
	m.IsActive = p.IsActive
	m.SortOrder = p.SortOrder
}

// PlanModelFromDomain creates a new persistence model from a domain Plan
func PlanModelFromDomain(p *investment.Plan) *PlanModel {
	m := &PlanModel{}
	m.FromDomain(p)
	return m
}

// CycleModel is the persistence model for investment cycles
type CycleModel struct {
	AggregateModel
	UserID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	PlanID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Status          investment.CycleStatus `gorm:"type:varchar(20);not null;index"`
	DaysPaid        int                    `gorm:"not null;default:0"`
	TotalPaid       decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	LastPaymentAt   *time.Time
	StartedAt       time.Time `gorm:"not null"`
	EndsAt          time.Time `gorm:"not null"`
	IsFirstPurchase bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CycleModel) TableName() string {
	return "cycles"
}

// ToDomain converts the persistence model to a domain Cycle
func (m *CycleModel) ToDomain() *investment.Cycle {
	return &investment.Cycle{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		PlanID:            m.PlanID,
		Amount:            m.Amount,
		Status:            m.Status,
		DaysPaid:          m.DaysPaid,
		TotalPaid:         m.TotalPaid,
		LastPaymentAt:     m.LastPaymentAt,
		StartedAt:         m.StartedAt,
		EndsAt:            m.EndsAt,
		IsFirstPurchase:   m.IsFirstPurchase,
	}
}

// FromDomain populates the persistence model from a domain Cycle
func (m *CycleModel) FromDomain(c *investment.Cycle) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.UserID = c.UserID
	m.PlanID = c.PlanID
	m.Amount = c.Amount
	m.Status = c.Status
	m.DaysPaid = c.DaysPaid
	m.TotalPaid = c.TotalPaid
	m.LastPaymentAt = c.LastPaymentAt
	m.StartedAt = c.StartedAt
	m.EndsAt = c.EndsAt
	m.IsFirstPurchase = c.IsFirstPurchase
}

// CycleModelFromDomain creates a new persistence model from a domain Cycle
func CycleModelFromDomain(c *investment.Cycle) *CycleModel {
	m := &CycleModel{}
	m.FromDomain(c)
	return m
}

// EarningModel is the persistence model for yield payments. The unique
// index on (cycle_id, reference_date, type) is the double-payment guard.
type EarningModel struct {
	BaseModel
	CycleID       uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_earning_cycle_date_type,priority:1"`
	UserID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	ReferenceDate time.Time              `gorm:"type:date;not null;uniqueIndex:idx_earning_cycle_date_type,priority:2"`
	Value         decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Type          investment.EarningType `gorm:"type:varchar(20);not null;uniqueIndex:idx_earning_cycle_date_type,priority:3"`
	IsPaid        bool                   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (EarningModel) TableName() string {
	return "earnings"
}

// ToDomain converts the persistence model to a domain Earning
func (m *EarningModel) ToDomain() *investment.Earning {
	return &investment.Earning{
		BaseEntity:    m.BaseModel.ToDomain(),
		CycleID:       m.CycleID,
		UserID:        m.UserID,
		ReferenceDate: m.ReferenceDate,
		Value:         m.Value,
		Type:          m.Type,
		IsPaid:        m.IsPaid,
	}
}

// FromDomain populates the persistence model from a domain Earning
func (m *EarningModel) FromDomain(e *investment.Earning) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.CycleID = e.CycleID
	m.UserID = e.UserID
	m.ReferenceDate = e.ReferenceDate
	m.Value = e.Value
	m.Type = e.Type
	m.IsPaid = e.IsPaid
}

// EarningModelFromDomain creates a new persistence model from a domain Earning
func EarningModelFromDomain(e *investment.Earning) *EarningModel {
	m := &EarningModel{}
	m.FromDomain(e)
	return m
}
