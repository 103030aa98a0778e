package domain

import "time"

var timeRank = map[Status]int{StatusActive: 0, StatusDueSoon: 1, StatusOverdue: 2}

// CivilDate truncates t to its calendar day, read in t's own location,
// expressed as UTC midnight.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StatusAt computes the time-driven status on the civil date today: overdue
// once the due date has passed, due_soon within dueSoonDays of it. Statuses
// only move forward here; rescheduling is what reopens an agreement.
func (a Agreement) StatusAt(today time.Time, dueSoonDays int) Status {
	if !a.Status.Open() {
		return a.Status
	}
	due := CivilDate(a.EffectiveDueDate())
	day := CivilDate(today)

	computed := StatusActive
	switch {
	case day.After(due):
		computed = StatusOverdue
	case !due.After(day.AddDate(0, 0, dueSoonDays)):
		computed = StatusDueSoon
	}
	if timeRank[computed] > timeRank[a.Status] {
		return computed
	}
	return a.Status
}

// ApplyTime moves the agreement to its time-driven status and reports
// whether anything changed.
func (a *Agreement) ApplyTime(today time.Time, dueSoonDays int, now time.Time) (bool, error) {
	next := a.StatusAt(today, dueSoonDays)
	if next == a.Status {
		return false, nil
	}
	if err := a.Transition(next, now); err != nil {
		return false, err
	}
	return true, nil
}
