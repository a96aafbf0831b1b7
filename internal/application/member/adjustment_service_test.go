package member

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/testutil"
)

type adjustmentFixture struct {
	users   *testutil.MemoryUserRepository
	entries *testutil.MemoryEntryRepository
	svc     *AdjustmentService
}

func newAdjustmentFixture(t *testing.T) *adjustmentFixture {
	t.Helper()
	users := testutil.NewMemoryUserRepository()
	entries := testutil.NewMemoryEntryRepository()
	scope := NewNoOpTransactionScope(users, entries)
	return &adjustmentFixture{
		users:   users,
		entries: entries,
		svc:     NewAdjustmentService(scope, zap.NewNop()),
	}
}

func (f *adjustmentFixture) addUser(t *testing.T, name string, withdrawable decimal.Decimal) *member.User {
	t.Helper()
	reg := NewRegistrationService(f.users, zap.NewNop())
	u, err := reg.Register(context.Background(), RegisterInput{
		Name: name, Email: name + "@example.com", Password: "longenough",
	})
	require.NoError(t, err)
	u.BalanceWithdrawn = withdrawable
	require.NoError(t, f.users.Save(context.Background(), u))
	return u
}

func (f *adjustmentFixture) entriesFor(t *testing.T, u *member.User) []*ledger.Entry {
	t.Helper()
	out, err := f.entries.FindByUser(context.Background(), u.ID, ledger.Filter{})
	require.NoError(t, err)
	return out
}

func TestAdjustBalance_Credit(t *testing.T) {
	f := newAdjustmentFixture(t)
	u := f.addUser(t, "ana", decimal.NewFromInt(10))

	applied, err := f.svc.AdjustBalance(context.Background(), u.ID, decimal.NewFromFloat(25.505), "support credit")
	require.NoError(t, err)
	assert.True(t, applied.Equal(decimal.NewFromFloat(25.51)))

	stored, err := f.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.BalanceWithdrawn.Equal(decimal.NewFromFloat(35.51)))

	entries := f.entriesFor(t, u)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, ledger.EntryTypeAdjustment, e.Type)
	assert.Equal(t, ledger.ReferenceKindAdjustment, e.Reference.Kind)
	assert.Equal(t, ledger.OperationCredit, e.Operation)
	assert.Equal(t, ledger.BalanceKindWithdrawable, e.BalanceKind)
	assert.True(t, e.Amount.Equal(decimal.NewFromFloat(25.51)))
	assert.True(t, e.BalanceBefore.Equal(decimal.NewFromInt(10)))
	assert.True(t, e.BalanceAfter.Equal(decimal.NewFromFloat(35.51)))
	assert.Equal(t, "support credit", e.Description)
}

func TestAdjustBalance_DebitClampsAtZero(t *testing.T) {
	f := newAdjustmentFixture(t)
	u := f.addUser(t, "bia", decimal.NewFromInt(30))

	applied, err := f.svc.AdjustBalance(context.Background(), u.ID, decimal.NewFromInt(-100), "chargeback")
	require.NoError(t, err)
	assert.True(t, applied.Equal(decimal.NewFromInt(-30)))

	stored, err := f.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.BalanceWithdrawn.IsZero())

	entries := f.entriesFor(t, u)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, ledger.OperationDebit, e.Operation)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, e.BalanceAfter.IsZero())
}

func TestAdjustBalance_DebitOnEmptyBalancePostsNothing(t *testing.T) {
	f := newAdjustmentFixture(t)
	u := f.addUser(t, "caio", decimal.Zero)

	applied, err := f.svc.AdjustBalance(context.Background(), u.ID, decimal.NewFromInt(-50), "")
	require.NoError(t, err)
	assert.True(t, applied.IsZero())

	stored, err := f.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.BalanceWithdrawn.IsZero())
	assert.Empty(t, f.entriesFor(t, u))
}

func TestAdjustBalance_ZeroAmountRejected(t *testing.T) {
	f := newAdjustmentFixture(t)
	u := f.addUser(t, "davi", decimal.NewFromInt(10))

	_, err := f.svc.AdjustBalance(context.Background(), u.ID, decimal.NewFromFloat(0.004), "")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	assert.Empty(t, f.entriesFor(t, u))
}

func TestAdjustBalance_UnknownUser(t *testing.T) {
	f := newAdjustmentFixture(t)
	_, err := f.svc.AdjustBalance(context.Background(), uuid.New(), decimal.NewFromInt(5), "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
