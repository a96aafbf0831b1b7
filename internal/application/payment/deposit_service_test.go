package payment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrono60/backend/internal/domain/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/pix"
)

func (f *paymentFixture) depositService(t *testing.T, provider payment.PixProvider) *DepositService {
	t.Helper()
	cfg := DepositServiceConfig{
		MinAmount:   decimal.NewFromInt(10),
		ExpiresIn:   30 * time.Minute,
		CallbackURL: "https://api.example.com/webhooks/vizzion",
	}
	return NewDepositService(f.scope, f.users, f.deposits, provider, cfg, f.clock, zap.NewNop())
}

func TestCreateDeposit(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	provider := pix.NewStubProvider(nil)
	svc := f.depositService(t, provider)

	deposit, err := svc.CreateDeposit(context.Background(), user.ID, decimal.NewFromInt(150))
	require.NoError(t, err)

	assert.Equal(t, payment.DepositStatusPending, deposit.Status)
	assert.True(t, deposit.Amount.Equal(decimal.NewFromInt(150)))
	assert.NotEmpty(t, deposit.TransactionID)
	assert.NotEmpty(t, deposit.QRCodeText)

	charges := provider.Charges()
	require.Len(t, charges, 1)
	assert.Equal(t, user.Name, charges[0].PayerName)
	assert.Equal(t, "https://api.example.com/webhooks/vizzion", charges[0].CallbackURL)

	stored, err := f.deposits.FindByTransactionID(context.Background(), deposit.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, deposit.ID, stored.ID)
}

func TestCreateDeposit_BelowMinimum(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	svc := f.depositService(t, pix.NewStubProvider(nil))

	_, err := svc.CreateDeposit(context.Background(), user.ID, decimal.NewFromFloat(9.99))
	require.Error(t, err)
	var domErr *shared.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, "AMOUNT_TOO_LOW", domErr.Code)
}

func TestExpireDeposits(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")

	stale := f.addPendingDeposit(t, user.ID, 100, "tx-old")
	fresh := f.addPendingDeposit(t, user.ID, 100, "tx-new")
	svc := f.depositService(t, pix.NewStubProvider(nil))

	// only tx-old is past its deadline
	asOf := stale.ExpiresAt.Add(time.Minute)
	freshStored, err := f.deposits.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	freshStored.ExpiresAt = asOf.Add(time.Hour)
	require.NoError(t, f.deposits.Save(context.Background(), freshStored))

	count, err := svc.ExpireDeposits(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	staleStored, err := f.deposits.FindByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.DepositStatusExpired, staleStored.Status)

	freshStored, err = f.deposits.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.DepositStatusPending, freshStored.Status)
}

func TestExpireDeposits_SkipsSettledWhileScanning(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.addUser(t, "diego")
	deposit := f.addPendingDeposit(t, user.ID, 100, "tx-1")
	svc := f.depositService(t, pix.NewStubProvider(nil))

	// the deposit gets paid between scan and sweep
	webhookSvc := f.webhookService(t, nil)
	_, err := webhookSvc.ProcessWebhook(context.Background(), paidBody("tx-1"))
	require.NoError(t, err)

	count, err := svc.ExpireDeposits(context.Background(), deposit.ExpiresAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, count)

	stored, err := f.deposits.FindByID(context.Background(), deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.DepositStatusPaid, stored.Status)
}
