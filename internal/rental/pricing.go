package rental

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillableDays converts an interval into whole charged days: any fraction of
// a day rounds up, and every rental is charged for at least one full day.
func BillableDays(start, end time.Time) int64 {
	duration := end.Sub(start)
	if duration <= 0 {
		return 1
	}

	days := duration / (24 * time.Hour)
	if duration%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return int64(days)
}

// Quote computes the total charge for renting at the given daily rate over
// [start, end). Pure and currency-agnostic; taxes and formatting belong to
// the caller.
func Quote(pricePerDay decimal.Decimal, start, end time.Time) decimal.Decimal {
	return pricePerDay.Mul(decimal.NewFromInt(BillableDays(start, end)))
}
