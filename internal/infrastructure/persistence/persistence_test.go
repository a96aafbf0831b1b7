package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/domain/withdrawal"
	"github.com/chrono60/backend/internal/infrastructure/persistence/models"
)

// newTestDB opens an in-memory sqlite database with the same gorm
// settings production uses, most importantly TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// every pooled connection gets its own :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.PlanModel{},
		&models.CycleModel{},
		&models.EarningModel{},
		&models.CommissionModel{},
		&models.LedgerEntryModel{},
		&models.DepositModel{},
		&models.WebhookEventModel{},
		&models.WithdrawalModel{},
	))
	return db
}

func newStoredUser(t *testing.T, repo *GormUserRepository, email, code string, referredBy *uuid.UUID) *member.User {
	t.Helper()
	user, err := member.NewUser("Test User", email, "hashed-password", code, referredBy)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestGormUserRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := newStoredUser(t, repo, "ana@example.com", "ANACODE1", nil)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, user.ReferralCode, found.ReferralCode)
	assert.True(t, found.Balance.IsZero())

	// lookups normalize case the same way registration does
	byEmail, err := repo.FindByEmail(ctx, "  Ana@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byCode, err := repo.FindByReferralCode(ctx, "anacode1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byCode.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormUserRepository_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	newStoredUser(t, repo, "dup@example.com", "CODE0001", nil)

	second, err := member.NewUser("Other", "dup@example.com", "hash", "CODE0002", nil)
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormUserRepository_DuplicateReferralCode(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	newStoredUser(t, repo, "first@example.com", "SAMECODE", nil)

	second, err := member.NewUser("Other", "second@example.com", "hash", "SAMECODE", nil)
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormUserRepository_ReferrerAndDownline(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	root := newStoredUser(t, repo, "root@example.com", "ROOT0001", nil)
	child := newStoredUser(t, repo, "child@example.com", "CHILD001", &root.ID)

	referrer, err := repo.FindReferrerOf(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, referrer.ID)

	_, err = repo.FindReferrerOf(ctx, root.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	downline, err := repo.FindDownline(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, downline, 1)
	assert.Equal(t, child.ID, downline[0].ID)
}

func TestGormUserRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user := newStoredUser(t, repo, "lock@example.com", "LOCK0001", nil)

	first, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, first.CreditBalance(decimal.NewFromInt(100)))
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, stale.CreditBalance(decimal.NewFromInt(50)))
	err = repo.SaveWithLock(ctx, stale)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)

	// the winning write survived
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, reloaded.Version)
}

func TestGormDepositRepository_UniqueTransactionID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormDepositRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	deposit, err := payment.NewDeposit(userID, decimal.NewFromInt(100), "tx-unique-1", time.Now().Add(30*time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, deposit))

	found, err := repo.FindByTransactionID(ctx, "tx-unique-1")
	require.NoError(t, err)
	assert.Equal(t, deposit.ID, found.ID)
	assert.Equal(t, payment.DepositStatusPending, found.Status)

	dup, err := payment.NewDeposit(userID, decimal.NewFromInt(200), "tx-unique-1", time.Now().Add(30*time.Minute))
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormDepositRepository_FindExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormDepositRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now().UTC()

	stale, err := payment.NewDeposit(userID, decimal.NewFromInt(50), "tx-stale", now.Add(10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, stale))

	fresh, err := payment.NewDeposit(userID, decimal.NewFromInt(50), "tx-fresh", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, fresh))

	paid, err := payment.NewDeposit(userID, decimal.NewFromInt(50), "tx-paid", now.Add(10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, paid.MarkPaid(now))
	require.NoError(t, repo.Create(ctx, paid))

	expired, err := repo.FindExpired(ctx, now.Add(time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "tx-stale", expired[0].TransactionID)
}

func TestGormWebhookEventRepository_HashUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWebhookEventRepository(db)
	ctx := context.Background()

	raw := []byte(`{"transaction": {"id": "tx-1", "status": "TRANSACTION_PAID"}}`)
	event, err := payment.NewWebhookEvent("vizzion", "tx-1", raw)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, event))

	found, err := repo.FindByHash(ctx, event.IdempotencyHash)
	require.NoError(t, err)
	assert.Equal(t, event.ID, found.ID)
	assert.Equal(t, string(raw), found.Payload)

	replay, err := payment.NewWebhookEvent("vizzion", "tx-1", raw)
	require.NoError(t, err)
	err = repo.Create(ctx, replay)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// a different body for the same transaction is a distinct delivery
	other, err := payment.NewWebhookEvent("vizzion", "tx-1", []byte(`{"transaction": {"id": "tx-1", "status": "OK"}}`))
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, other))
}

func TestGormWebhookEventRepository_ManualPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWebhookEventRepository(db)
	ctx := context.Background()

	depositID := uuid.New()
	manual := payment.NewManualWebhookEvent("vizzion", "tx-manual", depositID, "confirmed by support")
	require.NoError(t, repo.Create(ctx, manual))

	pending, err := repo.FindManualPendingByDeposit(ctx, depositID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, manual.ID, pending[0].ID)

	pending, err = repo.FindManualPendingByDeposit(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGormEarningRepository_UniqueKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormEarningRepository(db)
	ctx := context.Background()

	cycleID := uuid.New()
	userID := uuid.New()
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	daily, err := investment.NewEarning(cycleID, userID, day, decimal.NewFromInt(4), investment.EarningTypeDaily)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, daily))

	dup, err := investment.NewEarning(cycleID, userID, day, decimal.NewFromInt(4), investment.EarningTypeDaily)
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	exists, err := repo.ExistsForDate(ctx, cycleID, day, investment.EarningTypeDaily)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForDate(ctx, cycleID, day.AddDate(0, 0, 1), investment.EarningTypeDaily)
	require.NoError(t, err)
	assert.False(t, exists)

	// next day and a different type on the same day both pass
	nextDay, err := investment.NewEarning(cycleID, userID, day.AddDate(0, 0, 1), decimal.NewFromInt(4), investment.EarningTypeDaily)
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, nextDay))

	capital, err := investment.NewEarning(cycleID, userID, day, decimal.NewFromInt(100), investment.EarningTypeCapitalReturn)
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, capital))
}

func TestGormCommissionRepository_UniqueEvent(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCommissionRepository(db)
	ctx := context.Background()

	receiverID := uuid.New()
	buyerID := uuid.New()
	cycleID := uuid.New()

	first, err := commission.NewCommission(receiverID, buyerID, cycleID, 1, decimal.NewFromInt(15), decimal.NewFromInt(15), commission.TypeFirstPurchase)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	retry, err := commission.NewCommission(receiverID, buyerID, cycleID, 1, decimal.NewFromInt(15), decimal.NewFromInt(15), commission.TypeFirstPurchase)
	require.NoError(t, err)
	err = repo.Create(ctx, retry)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// another level of the same purchase is a separate row
	level2, err := commission.NewCommission(uuid.New(), buyerID, cycleID, 2, decimal.NewFromInt(2), decimal.NewFromInt(2), commission.TypeFirstPurchase)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, level2))

	// residuals carry an earning id, so the same cycle and level pass
	earningID := uuid.New()
	residual, err := commission.NewCommission(receiverID, buyerID, cycleID, 1, decimal.NewFromFloat(0.10), decimal.NewFromFloat(2.5), commission.TypeResidual)
	require.NoError(t, err)
	residual.EarningID = &earningID
	require.NoError(t, repo.Create(ctx, residual))

	byCycle, err := repo.FindByCycle(ctx, cycleID)
	require.NoError(t, err)
	assert.Len(t, byCycle, 3)

	byReceiver, err := repo.FindByReceiver(ctx, receiverID)
	require.NoError(t, err)
	require.Len(t, byReceiver, 2)
	for _, c := range byReceiver {
		if c.Type == commission.TypeResidual {
			require.NotNil(t, c.EarningID)
			assert.Equal(t, earningID, *c.EarningID)
		} else {
			assert.Nil(t, c.EarningID)
		}
	}
}

func TestGormLedgerRepository_FilterAndCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormLedgerRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	depositID := uuid.New()
	cycleID := uuid.New()

	depositEntry, err := ledger.NewEntry(
		userID,
		ledger.EntryTypeDeposit,
		ledger.Reference{Kind: ledger.ReferenceKindDeposit, ID: depositID},
		decimal.NewFromInt(100),
		ledger.OperationCredit,
		ledger.BalanceKindInvestable,
		decimal.Zero,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, depositEntry))

	investEntry, err := ledger.NewEntry(
		userID,
		ledger.EntryTypeInvestment,
		ledger.Reference{Kind: ledger.ReferenceKindCycle, ID: cycleID},
		decimal.NewFromInt(100),
		ledger.OperationDebit,
		ledger.BalanceKindInvestable,
		decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, investEntry))

	otherUserEntry, err := ledger.NewEntry(
		uuid.New(),
		ledger.EntryTypeDeposit,
		ledger.Reference{Kind: ledger.ReferenceKindDeposit, ID: uuid.New()},
		decimal.NewFromInt(30),
		ledger.OperationCredit,
		ledger.BalanceKindInvestable,
		decimal.Zero,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, otherUserEntry))

	all, err := repo.FindByUser(ctx, userID, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ledger.EntryTypeDeposit, all[0].Type)
	assert.Equal(t, ledger.EntryTypeInvestment, all[1].Type)

	depositType := ledger.EntryTypeDeposit
	onlyDeposits, err := repo.FindByUser(ctx, userID, ledger.Filter{Type: &depositType})
	require.NoError(t, err)
	require.Len(t, onlyDeposits, 1)
	assert.Equal(t, depositEntry.ID, onlyDeposits[0].ID)

	count, err := repo.CountByUser(ctx, userID, ledger.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	byRef, err := repo.FindByReference(ctx, ledger.Reference{Kind: ledger.ReferenceKindCycle, ID: cycleID})
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	assert.Equal(t, investEntry.ID, byRef[0].ID)
}

func TestGormCycleRepository_ActiveQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCycleRepository(db)
	ctx := context.Background()

	plan, err := investment.NewPlan("Robo 1", investment.PlanTypeDaily, decimal.NewFromInt(100), decimal.NewFromInt(4), 30, decimal.NewFromInt(220), 0)
	require.NoError(t, err)

	userID := uuid.New()
	now := time.Now().UTC()

	active, err := investment.NewCycle(userID, plan, now, true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, active))

	finished, err := investment.NewCycle(userID, plan, now.AddDate(0, 0, -40), false)
	require.NoError(t, err)
	require.NoError(t, finished.Finish(decimal.NewFromInt(120), now))
	require.NoError(t, repo.Create(ctx, finished))

	actives, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, active.ID, actives[0].ID)

	count, err := repo.CountActiveByUserAndPlan(ctx, userID, plan.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	total, err := repo.CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestGormCycleRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCycleRepository(db)
	ctx := context.Background()

	plan, err := investment.NewPlan("Robo 1", investment.PlanTypeDaily, decimal.NewFromInt(100), decimal.NewFromInt(4), 30, decimal.NewFromInt(220), 0)
	require.NoError(t, err)

	cycle, err := investment.NewCycle(uuid.New(), plan, time.Now().UTC(), false)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, cycle))

	first, err := repo.FindByID(ctx, cycle.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, cycle.ID)
	require.NoError(t, err)

	require.NoError(t, first.RecordDailyPayment(decimal.NewFromInt(4), plan.DurationDays, time.Now().UTC()))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, stale.RecordDailyPayment(decimal.NewFromInt(4), plan.DurationDays, time.Now().UTC()))
	err = repo.SaveWithLock(ctx, stale)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)

	reloaded, err := repo.FindByID(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.DaysPaid)
}

func TestGormPlanRepository_StorefrontOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPlanRepository(db)
	ctx := context.Background()

	second, err := investment.NewPlan("Robo 2", investment.PlanTypeDaily, decimal.NewFromInt(250), decimal.NewFromInt(10), 30, decimal.NewFromInt(550), 0)
	require.NoError(t, err)
	second.SortOrder = 2
	require.NoError(t, repo.Create(ctx, second))

	first, err := investment.NewPlan("Robo 1", investment.PlanTypeDaily, decimal.NewFromInt(100), decimal.NewFromInt(4), 30, decimal.NewFromInt(220), 0)
	require.NoError(t, err)
	first.SortOrder = 1
	require.NoError(t, repo.Create(ctx, first))

	retired, err := investment.NewPlan("Old Robo", investment.PlanTypeDaily, decimal.NewFromInt(50), decimal.NewFromInt(2), 30, decimal.NewFromInt(110), 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, retired))
	retired.Deactivate()
	require.NoError(t, repo.Save(ctx, retired))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	purchasable, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, purchasable, 2)
	assert.Equal(t, "Robo 1", purchasable[0].Name)
	assert.Equal(t, "Robo 2", purchasable[1].Name)
}

func TestGormWithdrawalRepository_CountForDay(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWithdrawalRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	requestedAt := time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC)
	fee := decimal.NewFromInt(5)

	active, err := withdrawal.NewWithdrawal(userID, decimal.NewFromInt(100), fee, "12345678901", withdrawal.PixKeyCPF, requestedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, active))

	rejected, err := withdrawal.NewWithdrawal(userID, decimal.NewFromInt(100), fee, "12345678901", withdrawal.PixKeyCPF, requestedAt.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, rejected.Reject("fraud review", requestedAt.Add(2*time.Hour)))
	require.NoError(t, repo.Create(ctx, rejected))

	yesterday, err := withdrawal.NewWithdrawal(userID, decimal.NewFromInt(100), fee, "12345678901", withdrawal.PixKeyCPF, requestedAt.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, yesterday))

	count, err := repo.CountForDay(ctx, userID, requestedAt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = repo.CountForDay(ctx, uuid.New(), requestedAt)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestGormWithdrawalRepository_StatusRoundtrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormWithdrawalRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	requestedAt := time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC)

	w, err := withdrawal.NewWithdrawal(userID, decimal.NewFromInt(100), decimal.NewFromInt(5), "12345678901", withdrawal.PixKeyCPF, requestedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, w))

	require.NoError(t, w.Approve(requestedAt.Add(time.Hour)))
	require.NoError(t, w.MarkPaid("transfer-1", requestedAt.Add(2*time.Hour)))
	require.NoError(t, repo.Save(ctx, w))

	found, err := repo.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, withdrawal.StatusPaid, found.Status)
	assert.Equal(t, "transfer-1", found.TransferID)
	require.NotNil(t, found.ProcessedAt)
	assert.True(t, found.NetAmount.Equal(decimal.NewFromInt(95)))

	paid, err := repo.FindByStatus(ctx, withdrawal.StatusPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, w.ID, paid[0].ID)
}
