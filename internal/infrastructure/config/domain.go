package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/chrono60/backend/internal/domain/commission"
	"github.com/chrono60/backend/internal/domain/withdrawal"
	"github.com/shopspring/decimal"
)

// Scheme converts the configured percentage tables into a typed commission
// scheme. Callers validate the result before use.
func (c *CommissionConfig) Scheme() commission.Scheme {
	return commission.Scheme{
		FirstPurchase:      toTiers(c.FirstPurchase),
		SubsequentPurchase: toTiers(c.SubsequentPurchase),
		Residual:           toTiers(c.Residual),
	}
}

func toTiers(m map[string]float64) commission.Tiers {
	tiers := make(commission.Tiers, len(m))
	for k, pct := range m {
		level, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		tiers[level] = decimal.NewFromFloat(pct)
	}
	return tiers
}

// Window converts the configured admission settings into a typed
// withdrawal window. Callers validate the result before use.
func (w *WithdrawalConfig) Window() withdrawal.WindowConfig {
	days := make([]time.Weekday, 0, len(w.Days))
	for _, name := range w.Days {
		if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
			days = append(days, d)
		}
	}
	return withdrawal.WindowConfig{
		Days:       days,
		StartHour:  w.StartHour,
		EndHour:    w.EndHour,
		MinAmount:  decimal.NewFromFloat(w.MinAmount),
		FeePercent: decimal.NewFromFloat(w.FeePercent),
		DailyLimit: w.DailyLimit,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}
