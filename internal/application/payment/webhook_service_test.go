package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/ledger"
	"github.com/chrono60/backend/internal/domain/member"
	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/testutil"
)

type paymentFixture struct {
	users    *testutil.MemoryUserRepository
	deposits *testutil.MemoryDepositRepository
	webhooks *testutil.MemoryWebhookEventRepository
	entries  *testutil.MemoryEntryRepository
	scope    *NoOpTransactionScope
	clock    *shared.FixedClock
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		users:    testutil.NewMemoryUserRepository(),
		deposits: testutil.NewMemoryDepositRepository(),
		webhooks: testutil.NewMemoryWebhookEventRepository(),
		entries:  testutil.NewMemoryEntryRepository(),
		clock:    &shared.FixedClock{Instant: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.scope = NewNoOpTransactionScope(f.users, f.deposits, f.webhooks, f.entries)
	return f
}

func (f *paymentFixture) webhookService(t *testing.T, dedup shared.IdempotencyStore) *WebhookService {
	t.Helper()
	return NewWebhookService(f.scope, f.webhooks, dedup, "vizzion", f.clock, zap.NewNop())
}

func (f *paymentFixture) addUser(t *testing.T, name string) *member.User {
	t.Helper()
	code := strings.ToUpper(uuid.NewString()[:8])
	u, err := member.NewUser(name, name+"@example.com", "hash", code, nil)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *paymentFixture) addPendingDeposit(t *testing.T, userID uuid.UUID, amount int64, txID string) *payment.Deposit {
	t.Helper()
	d, err := payment.NewDeposit(userID, decimal.NewFromInt(amount), txID, f.clock.Instant.Add(30*time.Minute))
	require.NoError(t, err)
	require.NoError(t, f.deposits.Create(context.Background(), d))
	return d
}

func paidBody(txID string) []byte {
	return []byte(fmt.Sprintf(`{"transaction": {"id": %q, "status": "TRANSACTION_PAID"}}`, txID))
}

func TestProcessWebhook_CreditsDepositOnce(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	deposit := f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, nil)

	event, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusProcessed, event.Status)
	require.NotNil(t, event.DepositID)
	assert.Equal(t, deposit.ID, *event.DepositID)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)), "got %s", stored.Balance)

	depositStored, err := f.deposits.FindByID(context.Background(), deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.DepositStatusPaid, depositStored.Status)
	require.NotNil(t, depositStored.PaidAt)

	entries := f.entries.All()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EntryTypeDeposit, entries[0].Type)
	assert.Equal(t, ledger.OperationCredit, entries[0].Operation)
}

func TestProcessWebhook_DuplicateBodyIsRejected(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, nil)

	_, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)

	_, err = svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	assert.ErrorIs(t, err, ErrDuplicateWebhook)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)), "got %s", stored.Balance)
	assert.Len(t, f.entries.All(), 1)
}

func TestProcessWebhook_SecondPaidBodyIsLateArrival(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, nil)

	_, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)

	// different body, same transaction: stored but not credited again
	other := []byte(`{"transactionId": "tx-1", "status": "PAID"}`)
	event, err := svc.ProcessWebhook(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusLateArrival, event.Status)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)), "got %s", stored.Balance)
	assert.Len(t, f.entries.All(), 1)
}

func TestProcessWebhook_UnknownTransactionFails(t *testing.T) {
	f := newPaymentFixture(t)
	svc := f.webhookService(t, nil)

	event, err := svc.ProcessWebhook(context.Background(), paidBody("tx-unknown"))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusFailed, event.Status)
	assert.Contains(t, event.ErrorMessage, "tx-unknown")
}

func TestProcessWebhook_MalformedBodyStoredAsFailed(t *testing.T) {
	f := newPaymentFixture(t)
	svc := f.webhookService(t, nil)

	event, err := svc.ProcessWebhook(context.Background(), []byte(`{"status": "OK"}`))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusFailed, event.Status)
	assert.Empty(t, event.ExternalID)
}

func TestProcessWebhook_UnknownStatusFails(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, nil)

	event, err := svc.ProcessWebhook(context.Background(), []byte(`{"transactionId": "tx-1", "status": "REFUNDED"}`))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusFailed, event.Status)
}

func TestProcessWebhook_CancelledAndExpired(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	d1 := f.addPendingDeposit(t, user.ID, 100, "tx-1")
	d2 := f.addPendingDeposit(t, user.ID, 100, "tx-2")
	svc := f.webhookService(t, nil)

	_, err := svc.ProcessWebhook(context.Background(), []byte(`{"transactionId": "tx-1", "status": "CANCELED"}`))
	require.NoError(t, err)
	_, err = svc.ProcessWebhook(context.Background(), []byte(`{"transactionId": "tx-2", "status": "EXPIRED"}`))
	require.NoError(t, err)

	stored, err := f.deposits.FindByID(context.Background(), d1.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.DepositStatusCancelled, stored.Status)

	stored, err = f.deposits.FindByID(context.Background(), d2.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.DepositStatusExpired, stored.Status)

	u, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, u.Balance.IsZero())
}

func TestReprocessWebhook_RecoversFailedEvent(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	svc := f.webhookService(t, nil)

	// webhook arrives before the deposit row exists
	event, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)
	require.Equal(t, payment.WebhookStatusFailed, event.Status)

	f.addPendingDeposit(t, user.ID, 200, "tx-1")

	replayed, err := svc.ReprocessWebhook(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusProcessed, replayed.Status)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)))
}

func TestReprocessWebhook_ProcessedEventIsNotEligible(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, nil)

	event, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)
	require.Equal(t, payment.WebhookStatusProcessed, event.Status)

	_, err = svc.ReprocessWebhook(context.Background(), event.ID)
	var domErr *shared.DomainError
	require.True(t, errors.As(err, &domErr))
	assert.Equal(t, "INVALID_STATE", domErr.Code)
}

func TestConfirmDepositManually_ThenWebhookIsLate(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	deposit := f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, nil)

	require.NoError(t, svc.ConfirmDepositManually(context.Background(), deposit.ID, "proof checked"))

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)))

	manual, err := f.webhooks.FindManualPendingByDeposit(context.Background(), deposit.ID)
	require.NoError(t, err)
	require.Len(t, manual, 1)

	// the real webhook finally shows up
	event, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusLateArrival, event.Status)

	// the placeholder is flipped and no second credit happens
	manual, err = f.webhooks.FindManualPendingByDeposit(context.Background(), deposit.ID)
	require.NoError(t, err)
	assert.Empty(t, manual)

	stored, err = f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)))

	err = svc.ConfirmDepositManually(context.Background(), deposit.ID, "again")
	var domErr *shared.DomainError
	require.True(t, errors.As(err, &domErr))
	assert.Equal(t, "INVALID_STATE", domErr.Code)
}

// flakyDedupStore rejects the second sighting of every key
type flakyDedupStore struct {
	seen map[string]bool
	err  error
}

func (s *flakyDedupStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *flakyDedupStore) IsProcessed(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.seen[key], nil
}

func (s *flakyDedupStore) Close() error { return nil }

func TestProcessWebhook_DedupFastPath(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, &flakyDedupStore{})

	_, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)

	_, err = svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	assert.ErrorIs(t, err, ErrDuplicateWebhook)
}

// unstableWebhookRepo fails the first n Create calls
type unstableWebhookRepo struct {
	payment.WebhookEventRepository
	failures int
}

func (r *unstableWebhookRepo) Create(ctx context.Context, e *payment.WebhookEvent) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	return r.WebhookEventRepository.Create(ctx, e)
}

func TestProcessWebhook_RetryAfterStoreFailureIsNotDuplicate(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	repo := &unstableWebhookRepo{WebhookEventRepository: f.webhooks, failures: 1}
	svc := NewWebhookService(f.scope, repo, &flakyDedupStore{}, "vizzion", f.clock, zap.NewNop())

	body := paidBody("tx-1")
	_, err := svc.ProcessWebhook(context.Background(), body)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateWebhook)

	// the failed insert left no row and no credit behind
	_, err = f.webhooks.FindByHash(context.Background(), payment.HashPayload(body))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// the provider retry of the identical payload must go through
	event, err := svc.ProcessWebhook(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, payment.WebhookStatusProcessed, event.Status)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)))
}

func TestProcessWebhook_DedupStoreOutageFallsBackToUniqueIndex(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	f.addPendingDeposit(t, user.ID, 200, "tx-1")
	svc := f.webhookService(t, &flakyDedupStore{err: errors.New("redis down")})

	_, err := svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)

	_, err = svc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	assert.ErrorIs(t, err, ErrDuplicateWebhook)

	stored, err := f.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)))
}
