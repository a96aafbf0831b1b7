package withdrawal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC) // a Monday

func newTestWithdrawal(t *testing.T) *Withdrawal {
	t.Helper()
	w, err := NewWithdrawal(uuid.New(), decimal.NewFromInt(100), decimal.NewFromInt(5),
		"12345678901", PixKeyCPF, testNow)
	require.NoError(t, err)
	return w
}

func TestNewWithdrawal_FeeArithmetic(t *testing.T) {
	w := newTestWithdrawal(t)

	assert.Equal(t, StatusRequested, w.Status)
	assert.True(t, w.FeeAmount.Equal(decimal.NewFromInt(5)))
	assert.True(t, w.NetAmount.Equal(decimal.NewFromInt(95)))
	assert.True(t, w.NetAmount.Add(w.FeeAmount).Equal(w.Amount))
}

func TestNewWithdrawal_FeeRounding(t *testing.T) {
	// 5% of 50.10 = 2.505, rounds half-up to 2.51
	w, err := NewWithdrawal(uuid.New(), decimal.NewFromFloat(50.10), decimal.NewFromInt(5),
		"12345678901", PixKeyCPF, testNow)
	require.NoError(t, err)

	assert.True(t, w.FeeAmount.Equal(decimal.NewFromFloat(2.51)), "fee: got %s", w.FeeAmount)
	assert.True(t, w.NetAmount.Add(w.FeeAmount).Equal(w.Amount))
}

func TestNewWithdrawal_RejectsInvalidInput(t *testing.T) {
	_, err := NewWithdrawal(uuid.Nil, decimal.NewFromInt(100), decimal.NewFromInt(5), "12345678901", PixKeyCPF, testNow)
	assert.Error(t, err)

	_, err = NewWithdrawal(uuid.New(), decimal.Zero, decimal.NewFromInt(5), "12345678901", PixKeyCPF, testNow)
	assert.Error(t, err)

	_, err = NewWithdrawal(uuid.New(), decimal.NewFromInt(100), decimal.NewFromInt(5), "not-a-cpf", PixKeyCPF, testNow)
	assert.Error(t, err)
}

func TestWithdrawal_Lifecycle(t *testing.T) {
	w := newTestWithdrawal(t)

	require.NoError(t, w.Approve(testNow))
	assert.Equal(t, StatusApproved, w.Status)
	require.NotNil(t, w.ProcessedAt)

	require.NoError(t, w.MarkPaid("tr-123", testNow.Add(time.Hour)))
	assert.Equal(t, StatusPaid, w.Status)
	assert.Equal(t, "tr-123", w.TransferID)

	assert.Error(t, w.Approve(testNow))
	assert.Error(t, w.Reject("late", testNow))
	assert.Error(t, w.MarkPaid("tr-456", testNow))
}

func TestWithdrawal_Processing(t *testing.T) {
	w := newTestWithdrawal(t)
	assert.Error(t, w.BeginProcessing())

	require.NoError(t, w.Approve(testNow))
	require.NoError(t, w.BeginProcessing())
	assert.Equal(t, StatusProcessing, w.Status)

	// processing is past the refund point
	assert.Error(t, w.Reject("too late", testNow))

	require.NoError(t, w.MarkPaid("tr-9", testNow.Add(time.Hour)))
	assert.Equal(t, StatusPaid, w.Status)
}

func TestWithdrawal_RejectFromRequestedAndApproved(t *testing.T) {
	w := newTestWithdrawal(t)
	require.NoError(t, w.Reject("suspicious", testNow))
	assert.Equal(t, StatusRejected, w.Status)
	assert.Equal(t, "suspicious", w.RejectReason)
	assert.False(t, w.CountsTowardDailyLimit())

	w = newTestWithdrawal(t)
	require.NoError(t, w.Approve(testNow))
	require.NoError(t, w.Reject("provider refused", testNow))
	assert.Equal(t, StatusRejected, w.Status)
}

func TestWithdrawal_MarkPaidRequiresApproval(t *testing.T) {
	w := newTestWithdrawal(t)
	assert.Error(t, w.MarkPaid("tr-1", testNow))
}

func TestValidatePixKey(t *testing.T) {
	assert.NoError(t, ValidatePixKey("12345678901", PixKeyCPF))
	assert.Error(t, ValidatePixKey("1234567890", PixKeyCPF))

	assert.NoError(t, ValidatePixKey("maria@example.com", PixKeyEmail))
	assert.Error(t, ValidatePixKey("maria-at-example", PixKeyEmail))

	assert.NoError(t, ValidatePixKey("+5511987654321", PixKeyPhone))
	assert.Error(t, ValidatePixKey("42", PixKeyPhone))

	assert.NoError(t, ValidatePixKey("123e4567e89b12d3a456426614174000", PixKeyRandom))
	assert.Error(t, ValidatePixKey("short", PixKeyRandom))

	assert.Error(t, ValidatePixKey("", PixKeyCPF))
	assert.Error(t, ValidatePixKey("whatever", PixKeyType("iban")))
}

func TestWindowConfig_IsOpen(t *testing.T) {
	w := DefaultWindowConfig()

	monday10 := time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC)
	assert.True(t, w.IsOpen(monday10))

	// boundary: start inclusive, end exclusive
	assert.True(t, w.IsOpen(time.Date(2025, 8, 18, 8, 0, 0, 0, time.UTC)))
	assert.False(t, w.IsOpen(time.Date(2025, 8, 18, 18, 0, 0, 0, time.UTC)))
	assert.False(t, w.IsOpen(time.Date(2025, 8, 18, 7, 59, 0, 0, time.UTC)))

	saturday := time.Date(2025, 8, 16, 10, 0, 0, 0, time.UTC)
	assert.False(t, w.IsOpen(saturday))
}

func TestWindowConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultWindowConfig().Validate())

	w := DefaultWindowConfig()
	w.Days = nil
	assert.Error(t, w.Validate())

	w = DefaultWindowConfig()
	w.StartHour, w.EndHour = 18, 8
	assert.Error(t, w.Validate())

	w = DefaultWindowConfig()
	w.FeePercent = decimal.NewFromInt(100)
	assert.Error(t, w.Validate())

	w = DefaultWindowConfig()
	w.DailyLimit = 0
	assert.Error(t, w.Validate())
}
