package utils

import (
	"fmt"
	"time"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

// PenaltyRules are the runtime parameters of the late-payment penalty.
type PenaltyRules struct {
	RatePerThousand int64
	StartDay        int
	Location        *time.Location
}

// PenaltyBreakdown provides detailed penalty breakdown
type PenaltyBreakdown struct {
	Amount       int64
	Penalty      int64
	Total        int64
	DaysLate     int
	PenaltyStart time.Time
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// MonthStart truncates t to the first day of its month at 00:00 in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	loc = location(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// AddMonths shifts a month start by n calendar months.
func AddMonths(month time.Time, n int) time.Time {
	return time.Date(month.Year(), month.Month()+time.Month(n), 1, 0, 0, 0, 0, month.Location())
}

// PenaltyStart returns day startDay of the given month at 00:00 in loc.
// Payments at or before this instant are on time. Only the calendar year and
// month of month are used, so a DATE read back from the database (midnight
// UTC) names the same month as the local month start it was stored from.
func PenaltyStart(month time.Time, startDay int, loc *time.Location) time.Time {
	return time.Date(month.Year(), month.Month(), startDay, 0, 0, 0, 0, location(loc))
}

// CalculatePenalty computes the penalty for a deposit of amount paid on
// paymentDate against the given target month. Every started block of 1000
// units costs one rate step.
func CalculatePenalty(rules PenaltyRules, month, paymentDate time.Time, amount int64) PenaltyBreakdown {
	start := PenaltyStart(month, rules.StartDay, rules.Location)
	b := PenaltyBreakdown{
		Amount:       amount,
		Total:        amount,
		PenaltyStart: start,
	}
	if !paymentDate.After(start) || amount <= 0 {
		return b
	}

	steps := (amount + 999) / 1000
	b.Penalty = steps * rules.RatePerThousand
	b.Total = amount + b.Penalty

	late := paymentDate.Sub(start)
	b.DaysLate = int((late + 24*time.Hour - 1) / (24 * time.Hour))
	return b
}

// ParseMonth parses a YYYY-MM string into the first instant of that month.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(monthLayout, s, location(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month format, expected yyyy-mm")
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD string at 00:00 in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, location(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}
	return t, nil
}

func FormatMonth(t time.Time) string {
	return t.Format(monthLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
