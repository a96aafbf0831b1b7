package persistence

import (
	"context"

	appinvestment "github.com/chrono60/backend/internal/application/investment"
	appmember "github.com/chrono60/backend/internal/application/member"
	apppayment "github.com/chrono60/backend/internal/application/payment"
	appwithdrawal "github.com/chrono60/backend/internal/application/withdrawal"
	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/withdrawal"
	"gorm.io/gorm"
)

// GormInvestmentScope implements the investment TransactionScope on a
// GORM transaction. Purchases, settlements, and the commission
// distributions they trigger share one transaction.
type GormInvestmentScope struct {
	db *gorm.DB
}

// NewGormInvestmentScope creates a new GormInvestmentScope
func NewGormInvestmentScope(db *gorm.DB) *GormInvestmentScope {
	return &GormInvestmentScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormInvestmentScope) Execute(ctx context.Context, fn func(repos appinvestment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormInvestmentRepos{tx: tx})
	})
}

type gormInvestmentRepos struct {
	tx *gorm.DB
}

func (r *gormInvestmentRepos) Users() member.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormInvestmentRepos) Plans() investment.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

func (r *gormInvestmentRepos) Cycles() investment.CycleRepository {
	return NewGormCycleRepository(r.tx)
}

func (r *gormInvestmentRepos) Earnings() investment.EarningRepository {
	return NewGormEarningRepository(r.tx)
}

func (r *gormInvestmentRepos) Commissions() commission.Repository {
	return NewGormCommissionRepository(r.tx)
}

func (r *gormInvestmentRepos) Entries() ledger.EntryRepository {
	return NewGormLedgerRepository(r.tx)
}

var _ appinvestment.TransactionScope = (*GormInvestmentScope)(nil)
var _ appinvestment.TransactionalRepositories = (*gormInvestmentRepos)(nil)

// GormPaymentScope implements the payment TransactionScope on a GORM
// transaction
type GormPaymentScope struct {
	db *gorm.DB
}

// NewGormPaymentScope creates a new GormPaymentScope
func NewGormPaymentScope(db *gorm.DB) *GormPaymentScope {
	return &GormPaymentScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormPaymentScope) Execute(ctx context.Context, fn func(repos apppayment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormPaymentRepos{tx: tx})
	})
}

type gormPaymentRepos struct {
	tx *gorm.DB
}

func (r *gormPaymentRepos) Users() member.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormPaymentRepos) Deposits() payment.DepositRepository {
	return NewGormDepositRepository(r.tx)
}

func (r *gormPaymentRepos) Webhooks() payment.WebhookEventRepository {
	return NewGormWebhookEventRepository(r.tx)
}

func (r *gormPaymentRepos) Entries() ledger.EntryRepository {
	return NewGormLedgerRepository(r.tx)
}

var _ apppayment.TransactionScope = (*GormPaymentScope)(nil)
var _ apppayment.TransactionalRepositories = (*gormPaymentRepos)(nil)

// GormWithdrawalScope implements the withdrawal TransactionScope on a
// GORM transaction
type GormWithdrawalScope struct {
	db *gorm.DB
}

// NewGormWithdrawalScope creates a new GormWithdrawalScope
func NewGormWithdrawalScope(db *gorm.DB) *GormWithdrawalScope {
	return &GormWithdrawalScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormWithdrawalScope) Execute(ctx context.Context, fn func(repos appwithdrawal.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormWithdrawalRepos{tx: tx})
	})
}

type gormWithdrawalRepos struct {
	tx *gorm.DB
}

func (r *gormWithdrawalRepos) Users() member.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormWithdrawalRepos) Withdrawals() withdrawal.Repository {
	return NewGormWithdrawalRepository(r.tx)
}

func (r *gormWithdrawalRepos) Cycles() investment.CycleRepository {
	return NewGormCycleRepository(r.tx)
}

func (r *gormWithdrawalRepos) Entries() ledger.EntryRepository {
	return NewGormLedgerRepository(r.tx)
}

var _ appwithdrawal.TransactionScope = (*GormWithdrawalScope)(nil)
var _ appwithdrawal.TransactionalRepositories = (*gormWithdrawalRepos)(nil)

// GormMemberScope implements the member TransactionScope on a GORM
// transaction. Balance adjustments and their ledger entries commit
// together.
type GormMemberScope struct {
	db *gorm.DB
}

// NewGormMemberScope creates a new GormMemberScope
func NewGormMemberScope(db *gorm.DB) *GormMemberScope {
	return &GormMemberScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormMemberScope) Execute(ctx context.Context, fn func(repos appmember.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormMemberRepos{tx: tx})
	})
}

type gormMemberRepos struct {
	tx *gorm.DB
}

func (r *gormMemberRepos) Users() member.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormMemberRepos) Entries() ledger.EntryRepository {
	return NewGormLedgerRepository(r.tx)
}

var _ appmember.TransactionScope = (*GormMemberScope)(nil)
var _ appmember.TransactionalRepositories = (*gormMemberRepos)(nil)
