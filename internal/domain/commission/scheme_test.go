package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScheme_Valid(t *testing.T) {
	require.NoError(t, DefaultScheme().Validate())
}

func TestSchemeValidate_MissingLevel(t *testing.T) {
	s := DefaultScheme()
	delete(s.Residual, 3)
	assert.Error(t, s.Validate())
}

func TestSchemeValidate_PercentageOutOfRange(t *testing.T) {
	s := DefaultScheme()
	s.FirstPurchase[1] = decimal.NewFromInt(101)
	assert.Error(t, s.Validate())

	s = DefaultScheme()
	s.SubsequentPurchase[2] = decimal.NewFromInt(-1)
	assert.Error(t, s.Validate())
}

func TestPurchaseTiers(t *testing.T) {
	s := DefaultScheme()

	tiers, commissionType := s.PurchaseTiers(true)
	assert.Equal(t, TypeFirstPurchase, commissionType)
	assert.True(t, tiers[1].Equal(decimal.NewFromInt(15)))

	tiers, commissionType = s.PurchaseTiers(false)
	assert.Equal(t, TypeSubsequentPurchase, commissionType)
	assert.True(t, tiers[1].Equal(decimal.NewFromInt(8)))
}

func TestAmountFor_FirstPurchaseOnHundred(t *testing.T) {
	tiers := DefaultScheme().FirstPurchase
	base := decimal.NewFromInt(100)

	for level, want := range map[int]string{1: "15", 2: "2", 3: "1"} {
		amount, pct := tiers.AmountFor(level, base)
		assert.True(t, amount.Equal(decimal.RequireFromString(want)), "level %d: got %s", level, amount)
		assert.True(t, pct.Equal(decimal.RequireFromString(want)))
	}
}

func TestAmountFor_RoundsHalfUp(t *testing.T) {
	tiers := DefaultScheme().Residual

	// 2.5% of 10.10 = 0.2525, rounds to 0.25
	amount, _ := tiers.AmountFor(1, decimal.NewFromFloat(10.10))
	assert.True(t, amount.Equal(decimal.NewFromFloat(0.25)), "got %s", amount)

	// 0.15% of 10 = 0.015, rounds to 0.02
	amount, _ = tiers.AmountFor(3, decimal.NewFromInt(10))
	assert.True(t, amount.Equal(decimal.NewFromFloat(0.02)), "got %s", amount)
}

func TestAmountFor_UnknownLevelIsZero(t *testing.T) {
	tiers := DefaultScheme().FirstPurchase
	amount, pct := tiers.AmountFor(7, decimal.NewFromInt(100))
	assert.True(t, amount.IsZero())
	assert.True(t, pct.IsZero())
}
