package investment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcommission "github.com/chrono60/backend/internal/application/commission"
	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/testutil"
)

type fixture struct {
	users       *testutil.MemoryUserRepository
	plans       *testutil.MemoryPlanRepository
	cycles      *testutil.MemoryCycleRepository
	earnings    *testutil.MemoryEarningRepository
	commissions *testutil.MemoryCommissionRepository
	entries     *testutil.MemoryEntryRepository
	scope       *NoOpTransactionScope
	clock       *shared.FixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:       testutil.NewMemoryUserRepository(),
		plans:       testutil.NewMemoryPlanRepository(),
		cycles:      testutil.NewMemoryCycleRepository(),
		earnings:    testutil.NewMemoryEarningRepository(),
		commissions: testutil.NewMemoryCommissionRepository(),
		entries:     testutil.NewMemoryEntryRepository(),
		clock:       &shared.FixedClock{Instant: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.scope = NewNoOpTransactionScope(f.users, f.plans, f.cycles, f.earnings, f.commissions, f.entries)
	return f
}

func (f *fixture) distributor(t *testing.T) *appcommission.Distributor {
	t.Helper()
	d, err := appcommission.NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)
	return d
}

func (f *fixture) purchaseService(t *testing.T) *PurchaseService {
	t.Helper()
	return NewPurchaseService(f.scope, f.distributor(t), f.clock, zap.NewNop())
}

func (f *fixture) settlementService(t *testing.T) *SettlementService {
	t.Helper()
	return NewSettlementService(f.scope, f.cycles, f.plans, f.distributor(t), zap.NewNop())
}

func (f *fixture) addUser(t *testing.T, name string, balance int64, referredBy *uuid.UUID) *member.User {
	t.Helper()
	code := strings.ToUpper(uuid.NewString()[:8])
	u, err := member.NewUser(name, name+"@example.com", "hash", code, referredBy)
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, u.CreditBalance(decimal.NewFromInt(balance)))
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) addDailyPlan(t *testing.T, price, dailyIncome int64, durationDays, maxPurchases int) *investment.Plan {
	t.Helper()
	total := decimal.NewFromInt(price).Add(decimal.NewFromInt(dailyIncome).Mul(decimal.NewFromInt(int64(durationDays))))
	plan, err := investment.NewPlan("Daily", investment.PlanTypeDaily,
		decimal.NewFromInt(price), decimal.NewFromInt(dailyIncome), durationDays, total, maxPurchases)
	require.NoError(t, err)
	require.NoError(t, f.plans.Create(context.Background(), plan))
	return plan
}

func (f *fixture) addEndCyclePlan(t *testing.T, price, totalReturn int64, durationDays int) *investment.Plan {
	t.Helper()
	plan, err := investment.NewPlan("Lump", investment.PlanTypeEndCycle,
		decimal.NewFromInt(price), decimal.Zero, durationDays, decimal.NewFromInt(totalReturn), 0)
	require.NoError(t, err)
	require.NoError(t, f.plans.Create(context.Background(), plan))
	return plan
}

func TestPurchasePlan_DebitsBalanceAndCreatesCycle(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "diego", 500, nil)
	plan := f.addDailyPlan(t, 100, 4, 30, 0)

	cycle, err := f.purchaseService(t).PurchasePlan(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, investment.CycleStatusActive, cycle.Status)
	assert.True(t, cycle.IsFirstPurchase)
	assert.True(t, cycle.Amount.Equal(decimal.NewFromInt(100)))

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(400)), "got %s", stored.Balance)
	assert.True(t, stored.TotalInvested.Equal(decimal.NewFromInt(100)))

	entries := f.entries.All()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EntryTypeInvestment, entries[0].Type)
	assert.Equal(t, ledger.OperationDebit, entries[0].Operation)
	assert.True(t, entries[0].BalanceAfter.Equal(decimal.NewFromInt(400)))
}

func TestPurchasePlan_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "diego", 40, nil)
	plan := f.addDailyPlan(t, 100, 4, 30, 0)

	_, err := f.purchaseService(t).PurchasePlan(context.Background(), user.ID, plan.ID)
	requireDomainCode(t, err, "INSUFFICIENT_BALANCE")

	// nothing persisted
	count, err := f.cycles.CountByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.entries.All())
}

func TestPurchasePlan_InactivePlan(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "diego", 500, nil)
	plan := f.addDailyPlan(t, 100, 4, 30, 0)
	plan.Deactivate()
	require.NoError(t, f.plans.Save(context.Background(), plan))

	_, err := f.purchaseService(t).PurchasePlan(context.Background(), user.ID, plan.ID)
	requireDomainCode(t, err, "PLAN_INACTIVE")
}

func TestPurchasePlan_ConcurrentLimit(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "diego", 500, nil)
	plan := f.addDailyPlan(t, 100, 4, 30, 1)
	svc := f.purchaseService(t)

	_, err := svc.PurchasePlan(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	_, err = svc.PurchasePlan(context.Background(), user.ID, plan.ID)
	requireDomainCode(t, err, "PURCHASE_LIMIT_REACHED")
}

func TestPurchasePlan_FirstThenSubsequentCommissions(t *testing.T) {
	f := newFixture(t)
	sponsor := f.addUser(t, "carla", 0, nil)
	buyer := f.addUser(t, "diego", 500, &sponsor.ID)
	plan := f.addDailyPlan(t, 100, 4, 30, 0)
	svc := f.purchaseService(t)

	first, err := svc.PurchasePlan(context.Background(), buyer.ID, plan.ID)
	require.NoError(t, err)
	assert.True(t, first.IsFirstPurchase)

	second, err := svc.PurchasePlan(context.Background(), buyer.ID, plan.ID)
	require.NoError(t, err)
	assert.False(t, second.IsFirstPurchase)

	// 15% on the first purchase, 8% on the second
	stored, err := f.users.FindByID(context.Background(), sponsor.ID)
	require.NoError(t, err)
	assert.True(t, stored.BalanceWithdrawn.Equal(decimal.NewFromInt(23)), "got %s", stored.BalanceWithdrawn)
}

func TestCancelCycle(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "diego", 500, nil)
	plan := f.addDailyPlan(t, 100, 4, 30, 0)
	svc := f.purchaseService(t)

	cycle, err := svc.PurchasePlan(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)

	require.NoError(t, svc.CancelCycle(context.Background(), cycle.GetID()))

	stored, err := f.cycles.FindByID(context.Background(), cycle.GetID())
	require.NoError(t, err)
	assert.Equal(t, investment.CycleStatusCancelled, stored.Status)

	// cancelling again is an invalid state
	err = svc.CancelCycle(context.Background(), cycle.GetID())
	requireDomainCode(t, err, "INVALID_STATE")
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domErr *shared.DomainError
	require.True(t, errors.As(err, &domErr), "error %v is not a domain error", err)
	assert.Equal(t, code, domErr.Code)
}
