package commission

import (
	"fmt"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxLevels is how far up the referral chain commissions reach
const MaxLevels = 3

// Tiers maps upline level (1..MaxLevels) to a percentage
type Tiers map[int]decimal.Decimal

// Scheme holds the percentage tables of the commission engine. Loaded
// from configuration and validated before use.
type Scheme struct {
	FirstPurchase      Tiers
	SubsequentPurchase Tiers
	Residual           Tiers
}

// DefaultScheme returns the stock percentage tables
func DefaultScheme() Scheme {
	return Scheme{
		FirstPurchase: Tiers{
			1: decimal.NewFromInt(15),
			2: decimal.NewFromInt(2),
			3: decimal.NewFromInt(1),
		},
		SubsequentPurchase: Tiers{
			1: decimal.NewFromInt(8),
			2: decimal.NewFromInt(2),
			3: decimal.NewFromInt(1),
		},
		Residual: Tiers{
			1: decimal.NewFromFloat(2.5),
			2: decimal.NewFromFloat(0.5),
			3: decimal.NewFromFloat(0.15),
		},
	}
}

// Validate checks every tier table covers levels 1..MaxLevels with
// percentages in [0, 100]
func (s Scheme) Validate() error {
	for name, tiers := range map[string]Tiers{
		"first_purchase":      s.FirstPurchase,
		"subsequent_purchase": s.SubsequentPurchase,
		"residual":            s.Residual,
	} {
		for level := 1; level <= MaxLevels; level++ {
			pct, ok := tiers[level]
			if !ok {
				return shared.NewDomainError("INVALID_SCHEME",
					fmt.Sprintf("Scheme %s is missing level %d", name, level))
			}
			if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
				return shared.NewDomainError("INVALID_SCHEME",
					fmt.Sprintf("Scheme %s level %d percentage out of range", name, level))
			}
		}
	}
	return nil
}

// PurchaseTiers picks the tier table for a purchase event
func (s Scheme) PurchaseTiers(isFirstPurchase bool) (Tiers, Type) {
	if isFirstPurchase {
		return s.FirstPurchase, TypeFirstPurchase
	}
	return s.SubsequentPurchase, TypeSubsequentPurchase
}

// AmountFor computes the commission for a base amount at a level,
// rounded half-up to 2 decimal places.
func (t Tiers) AmountFor(level int, base decimal.Decimal) (amount, percentage decimal.Decimal) {
	pct := t[level]
	return base.Mul(pct).Div(decimal.NewFromInt(100)).Round(2), pct
}
