package withdrawal

import (
	"fmt"
	"time"

	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// WindowConfig is the typed admission policy for withdrawal requests
type WindowConfig struct {
	// Days of week on which withdrawals are accepted
	Days []time.Weekday
	// StartHour/EndHour bound the accepting time of day, [Start, End)
	StartHour int
	EndHour   int
	// MinAmount is the smallest accepted request
	MinAmount decimal.Decimal
	// FeePercent is the house cut, e.g. 5 for 5%
	FeePercent decimal.Decimal
	// DailyLimit is the max requests per user per calendar day
	DailyLimit int
}

// DefaultWindowConfig accepts withdrawals on weekdays 08:00-18:00, R$50
// minimum, 5% fee, one per day.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Days:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartHour:  8,
		EndHour:    18,
		MinAmount:  decimal.NewFromInt(50),
		FeePercent: decimal.NewFromInt(5),
		DailyLimit: 1,
	}
}

// Validate checks the window is coherent
func (w WindowConfig) Validate() error {
	if len(w.Days) == 0 {
		return shared.NewDomainError("INVALID_WINDOW", "Window must name at least one day")
	}
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 1 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return shared.NewDomainError("INVALID_WINDOW",
			fmt.Sprintf("Window hours %d-%d are out of order", w.StartHour, w.EndHour))
	}
	if w.MinAmount.IsNegative() {
		return shared.NewDomainError("INVALID_WINDOW", "Minimum amount cannot be negative")
	}
	if w.FeePercent.IsNegative() || w.FeePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_WINDOW", "Fee percent out of range")
	}
	if w.DailyLimit <= 0 {
		return shared.NewDomainError("INVALID_WINDOW", "Daily limit must be positive")
	}
	return nil
}

// IsOpen reports whether the window accepts requests at the given time
func (w WindowConfig) IsOpen(at time.Time) bool {
	day := at.Weekday()
	found := false
	for _, d := range w.Days {
		if d == day {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	h := at.Hour()
	return h >= w.StartHour && h < w.EndHour
}
