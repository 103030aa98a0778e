package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Recurrence is the billing period of a service.
type Recurrence string

const (
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

var ErrUnknownRecurrence = errors.New("unknown recurrence")

var recurrenceWords = map[string]Recurrence{
	"diario":    RecurrenceDaily,
	"diaria":    RecurrenceDaily,
	"daily":     RecurrenceDaily,
	"semanal":   RecurrenceWeekly,
	"weekly":    RecurrenceWeekly,
	"quincenal": RecurrenceBiweekly,
	"biweekly":  RecurrenceBiweekly,
	"mensual":   RecurrenceMonthly,
	"monthly":   RecurrenceMonthly,
}

// ParseRecurrence accepts the Spanish and English period names; input is
// expected already lowercased and accent-folded.
func ParseRecurrence(s string) (Recurrence, bool) {
	s = strings.TrimSpace(s)
	if r, ok := recurrenceWords[s]; ok {
		return r, true
	}
	for _, w := range strings.Fields(s) {
		if r, ok := recurrenceWords[w]; ok {
			return r, true
		}
	}
	return "", false
}

// Label is the user-facing Spanish name.
func (r Recurrence) Label() string {
	switch r {
	case RecurrenceDaily:
		return "diario"
	case RecurrenceWeekly:
		return "semanal"
	case RecurrenceBiweekly:
		return "quincenal"
	case RecurrenceMonthly:
		return "mensual"
	}
	return string(r)
}

// Rule renders the recurrence as a standard cron spec anchored on start:
// weekly services repeat on start's weekday, monthly ones on its day of
// month (capped at 28 so every month has a due date).
func (r Recurrence) Rule(start time.Time) (string, error) {
	switch r {
	case RecurrenceDaily:
		return "0 0 * * *", nil
	case RecurrenceWeekly:
		return fmt.Sprintf("0 0 * * %d", int(start.Weekday())), nil
	case RecurrenceBiweekly:
		return "0 0 1,15 * *", nil
	case RecurrenceMonthly:
		day := start.Day()
		if day > 28 {
			day = 28
		}
		return fmt.Sprintf("0 0 %d * *", day), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRecurrence, string(r))
}

// NextDue returns the first occurrence of rule strictly after the civil
// date of after (only its year, month and day are read), as a UTC-midnight
// date.
func NextDue(rule string, after time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(rule)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recurrence %q: %w", rule, err)
	}
	endOfDay := time.Date(after.Year(), after.Month(), after.Day(), 23, 59, 0, 0, time.UTC)
	next := sched.Next(endOfDay)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC), nil
}
