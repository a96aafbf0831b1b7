package commission

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/investment"
	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/testutil"
)

type testRepos struct {
	users       *testutil.MemoryUserRepository
	commissions *testutil.MemoryCommissionRepository
	entries     *testutil.MemoryEntryRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		users:       testutil.NewMemoryUserRepository(),
		commissions: testutil.NewMemoryCommissionRepository(),
		entries:     testutil.NewMemoryEntryRepository(),
	}
}

func (r *testRepos) Users() member.UserRepository       { return r.users }
func (r *testRepos) Commissions() commission.Repository { return r.commissions }
func (r *testRepos) Entries() ledger.EntryRepository    { return r.entries }

// addUser creates and stores a member referred by the given upline
func (r *testRepos) addUser(t *testing.T, name string, referredBy *uuid.UUID) *member.User {
	t.Helper()
	code := strings.ToUpper(uuid.NewString()[:8])
	u, err := member.NewUser(name, name+"@example.com", "hash", code, referredBy)
	require.NoError(t, err)
	require.NoError(t, r.users.Create(context.Background(), u))
	return u
}

// chain builds A <- B <- C <- D and returns them in that order
func buildChain(t *testing.T, r *testRepos) (a, b, c, d *member.User) {
	t.Helper()
	a = r.addUser(t, "alice", nil)
	b = r.addUser(t, "bruno", &a.ID)
	c = r.addUser(t, "carla", &b.ID)
	d = r.addUser(t, "diego", &c.ID)
	return a, b, c, d
}

func newCycleFor(t *testing.T, userID uuid.UUID, price int64, isFirst bool) *investment.Cycle {
	t.Helper()
	plan, err := investment.NewPlan("Starter", investment.PlanTypeDaily,
		decimal.NewFromInt(price), decimal.NewFromInt(4), 30, decimal.NewFromInt(2*price), 0)
	require.NoError(t, err)
	cycle, err := investment.NewCycle(userID, plan, time.Now().UTC(), isFirst)
	require.NoError(t, err)
	return cycle
}

func TestDistributeOnPurchase_FirstPurchaseThreeLevels(t *testing.T) {
	repos := newTestRepos()
	a, b, c, d := buildChain(t, repos)
	cycle := newCycleFor(t, d.ID, 100, true)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, dist.DistributeOnPurchase(context.Background(), repos, cycle))

	// level 1 = C (15%), level 2 = B (2%), level 3 = A (1%)
	for _, tc := range []struct {
		receiver *member.User
		want     string
	}{
		{c, "15"}, {b, "2"}, {a, "1"},
	} {
		u, err := repos.users.FindByID(context.Background(), tc.receiver.ID)
		require.NoError(t, err)
		assert.True(t, u.BalanceWithdrawn.Equal(decimal.RequireFromString(tc.want)),
			"%s: got %s", tc.receiver.Name, u.BalanceWithdrawn)
		assert.True(t, u.TotalEarned.Equal(decimal.RequireFromString(tc.want)))
	}

	rows, err := repos.commissions.FindByCycle(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, commission.TypeFirstPurchase, row.Type)
		assert.Equal(t, d.ID, row.FromUserID)
		assert.Nil(t, row.EarningID)
	}

	assert.Len(t, repos.entries.All(), 3)
	for _, e := range repos.entries.All() {
		assert.Equal(t, ledger.EntryTypeCommission, e.Type)
		assert.Equal(t, ledger.BalanceKindWithdrawable, e.BalanceKind)
	}
}

func TestDistributeOnPurchase_SubsequentUsesLowerTable(t *testing.T) {
	repos := newTestRepos()
	_, _, c, d := buildChain(t, repos)
	cycle := newCycleFor(t, d.ID, 100, false)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, dist.DistributeOnPurchase(context.Background(), repos, cycle))

	u, err := repos.users.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, u.BalanceWithdrawn.Equal(decimal.NewFromInt(8)), "got %s", u.BalanceWithdrawn)
}

func TestDistributeOnPurchase_RetryDoesNotDoublePay(t *testing.T) {
	repos := newTestRepos()
	_, _, c, d := buildChain(t, repos)
	cycle := newCycleFor(t, d.ID, 100, true)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, dist.DistributeOnPurchase(context.Background(), repos, cycle))
	require.NoError(t, dist.DistributeOnPurchase(context.Background(), repos, cycle))

	u, err := repos.users.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, u.BalanceWithdrawn.Equal(decimal.NewFromInt(15)), "got %s", u.BalanceWithdrawn)

	rows, err := repos.commissions.FindByCycle(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Len(t, repos.entries.All(), 3)
}

func TestDistributeOnPurchase_ShortChain(t *testing.T) {
	repos := newTestRepos()
	a := repos.addUser(t, "alice", nil)
	b := repos.addUser(t, "bruno", &a.ID)
	cycle := newCycleFor(t, b.ID, 100, true)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, dist.DistributeOnPurchase(context.Background(), repos, cycle))

	rows, err := repos.commissions.FindByCycle(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Level)
	assert.Equal(t, a.ID, rows[0].UserID)
}

func TestDistributeOnPurchase_NoUplineIsNoOp(t *testing.T) {
	repos := newTestRepos()
	orphan := repos.addUser(t, "orphan", nil)
	cycle := newCycleFor(t, orphan.ID, 100, true)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, dist.DistributeOnPurchase(context.Background(), repos, cycle))

	rows, err := repos.commissions.FindByCycle(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, repos.entries.All())
}

func TestDistributeResidual(t *testing.T) {
	repos := newTestRepos()
	a, b, c, d := buildChain(t, repos)
	cycle := newCycleFor(t, d.ID, 100, true)

	earning, err := investment.NewEarning(cycle.ID, d.ID, time.Now().UTC(), decimal.NewFromInt(4), investment.EarningTypeDaily)
	require.NoError(t, err)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, dist.DistributeResidual(context.Background(), repos, cycle, earning))

	// 2.5% / 0.5% / 0.15% of 4.00 rounded to cents
	for _, tc := range []struct {
		receiver *member.User
		want     string
	}{
		{c, "0.1"}, {b, "0.02"}, {a, "0.01"},
	} {
		u, err := repos.users.FindByID(context.Background(), tc.receiver.ID)
		require.NoError(t, err)
		assert.True(t, u.BalanceWithdrawn.Equal(decimal.RequireFromString(tc.want)),
			"%s: got %s", tc.receiver.Name, u.BalanceWithdrawn)
	}

	rows, err := repos.commissions.FindByCycle(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, commission.TypeResidual, row.Type)
		require.NotNil(t, row.EarningID)
		assert.Equal(t, earning.ID, *row.EarningID)
	}

	for _, e := range repos.entries.All() {
		assert.Equal(t, ledger.EntryTypeCommissionResidual, e.Type)
	}
}

func TestDistributeResidual_SkipsSubCentLevels(t *testing.T) {
	repos := newTestRepos()
	_, _, _, d := buildChain(t, repos)
	cycle := newCycleFor(t, d.ID, 100, true)

	// 0.5% and 0.15% of 0.50 round to zero; only level 1 pays
	earning, err := investment.NewEarning(cycle.ID, d.ID, time.Now().UTC(), decimal.NewFromFloat(0.50), investment.EarningTypeDaily)
	require.NoError(t, err)

	dist, err := NewDistributor(commission.DefaultScheme(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, dist.DistributeResidual(context.Background(), repos, cycle, earning))

	rows, err := repos.commissions.FindByCycle(context.Background(), cycle.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Level)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromFloat(0.01)), "got %s", rows[0].Amount)
}

func TestNewDistributor_RejectsInvalidScheme(t *testing.T) {
	scheme := commission.DefaultScheme()
	delete(scheme.FirstPurchase, 2)
	_, err := NewDistributor(scheme, zap.NewNop())
	assert.Error(t, err)
}
