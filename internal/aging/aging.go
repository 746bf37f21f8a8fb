// Package aging classifies outstanding receivables by how far they sit from
// their due date.
package aging

import (
	"time"

	"tradeflow/internal/domain"

	"github.com/shopspring/decimal"
)

type Bucket string

const (
	BucketNormal   Bucket = "normal"
	BucketWarn     Bucket = "warn"
	BucketCritical Bucket = "critical"
)

const (
	WarnAfterDays     = 30
	CriticalAfterDays = 60
)

const secondsPerDay = 24 * 60 * 60

// dayNumber counts days since the Unix epoch for the calendar date of t.
// Midnight UTC is an exact multiple of a day, so the division never rounds.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// SignedAgeInDays returns today - due in whole calendar days. Positive means
// overdue, negative means not yet due.
func SignedAgeInDays(dueDate, today time.Time) int {
	return int(dayNumber(today) - dayNumber(dueDate))
}

// AgeInDays is the absolute distance between today and the due date, so an
// invoice due in ten days reports the same age as one ten days late.
func AgeInDays(dueDate, today time.Time) int {
	age := SignedAgeInDays(dueDate, today)
	if age < 0 {
		return -age
	}
	return age
}

// BucketFor maps an age to its bucket: above 60 is critical, above 30 warn.
func BucketFor(ageInDays int) Bucket {
	switch {
	case ageInDays > CriticalAfterDays:
		return BucketCritical
	case ageInDays > WarnAfterDays:
		return BucketWarn
	default:
		return BucketNormal
	}
}

// TotalOutstanding sums balances across all invoices whatever their status;
// paid invoices carry a zero balance.
func TotalOutstanding(invoices []domain.Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Balance)
	}
	return total
}
