package models

import (
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserModel is the persistence model for the User domain entity
type UserModel struct {
	AggregateModel
	Name             string          `gorm:"type:varchar(200);not null"`
	Email            string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash     string          `gorm:"type:varchar(100);not null"`
	ReferralCode     string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	ReferredBy       *uuid.UUID      `gorm:"type:uuid;index"`
	Balance          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceWithdrawn decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalInvested    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalEarned      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalWithdrawn   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsAdmin          bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity
func (m *UserModel) ToDomain() *member.User {
	return &member.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		ReferralCode:      m.ReferralCode,
		ReferredBy:        m.ReferredBy,
		Balance:           m.Balance,
		BalanceWithdrawn:  m.BalanceWithdrawn,
		TotalInvested:     m.TotalInvested,
		TotalEarned:       m.TotalEarned,
		TotalWithdrawn:    m.TotalWithdrawn,
		IsAdmin:           m.IsAdmin,
	}
}

// FromDomain populates the persistence model from a domain User entity
func (m *UserModel) FromDomain(u *member.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Name = u.Name
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.ReferralCode = u.ReferralCode
	m.ReferredBy = u.ReferredBy
	m.Balance = u.Balance
	m.BalanceWithdrawn = u.BalanceWithdrawn
	m.TotalInvested = u.TotalInvested
	m.TotalEarned = u.TotalEarned
	m.TotalWithdrawn = u.TotalWithdrawn
	m.IsAdmin = u.IsAdmin
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *member.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
