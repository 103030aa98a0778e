package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindLoan    Kind = "loan"
	KindService Kind = "service"
)

type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusActive              Status = "active"
	StatusDueSoon             Status = "due_soon"
	StatusOverdue             Status = "overdue"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
	StatusRejected            Status = "rejected"
)

// Open statuses still expect something from the borrower.
func (s Status) Open() bool {
	switch s {
	case StatusActive, StatusDueSoon, StatusOverdue:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

var (
	ErrNotFound          = errors.New("agreement not found")
	ErrInvalidTransition = errors.New("invalid agreement status transition")
	ErrInvalidAgreement  = errors.New("invalid agreement")
	ErrDuplicateFlowRef  = errors.New("agreement already created for this conversation")
)

var transitions = map[Status][]Status{
	StatusPendingConfirmation: {StatusActive, StatusRejected, StatusCancelled},
	StatusActive:              {StatusDueSoon, StatusOverdue, StatusCompleted, StatusCancelled},
	StatusDueSoon:             {StatusActive, StatusOverdue, StatusCompleted, StatusCancelled},
	StatusOverdue:             {StatusActive, StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Agreement is a tracked loan or recurring service between two contacts of
// a tenant. Monetary loans carry Amount; object loans carry ItemDescription.
type Agreement struct {
	ID                string
	TenantID          string
	LenderContactID   string
	BorrowerContactID string
	Kind              Kind
	Title             string
	Amount            decimal.NullDecimal
	Currency          string
	ItemDescription   string
	DueDate           time.Time
	RecurrenceRule    string
	NextDueDate       *time.Time
	Status            Status
	OptInRequired     bool
	ReminderCount     int
	Metadata          map[string]any
	FlowRef           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// NewLoan builds a loan. Exactly one of amount or item must be present.
func NewLoan(tenantID, lenderID, borrowerID string, amount *decimal.Decimal, currency, item string, due time.Time, now time.Time) (*Agreement, error) {
	if tenantID == "" || lenderID == "" || borrowerID == "" {
		return nil, fmt.Errorf("%w: tenant, lender and borrower are required", ErrInvalidAgreement)
	}
	if due.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrInvalidAgreement)
	}
	a := &Agreement{
		TenantID:          tenantID,
		LenderContactID:   lenderID,
		BorrowerContactID: borrowerID,
		Kind:              KindLoan,
		DueDate:           due,
		Status:            StatusActive,
		Metadata:          map[string]any{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	switch {
	case amount != nil && amount.IsPositive():
		a.Amount = decimal.NewNullDecimal(*amount)
		a.Currency = currency
		a.Title = "Préstamo de " + FormatMoney(*amount, currency)
	case item != "":
		a.ItemDescription = item
		a.Title = "Préstamo: " + item
	default:
		return nil, fmt.Errorf("%w: amount or item is required", ErrInvalidAgreement)
	}
	return a, nil
}

// NewService builds a recurring service whose first due date is computed
// from the recurrence.
func NewService(tenantID, providerID, clientID, description string, amount *decimal.Decimal, currency string, rec Recurrence, now time.Time, loc *time.Location) (*Agreement, error) {
	if tenantID == "" || providerID == "" || clientID == "" || description == "" {
		return nil, fmt.Errorf("%w: tenant, provider, client and description are required", ErrInvalidAgreement)
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	rule, err := rec.Rule(local)
	if err != nil {
		return nil, err
	}
	first, err := NextDue(rule, local)
	if err != nil {
		return nil, err
	}
	a := &Agreement{
		TenantID:          tenantID,
		LenderContactID:   providerID,
		BorrowerContactID: clientID,
		Kind:              KindService,
		Title:             "Servicio: " + description,
		ItemDescription:   description,
		DueDate:           first,
		RecurrenceRule:    rule,
		NextDueDate:       &first,
		Status:            StatusActive,
		Metadata:          map[string]any{"recurrence": string(rec)},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if amount != nil && amount.IsPositive() {
		a.Amount = decimal.NewNullDecimal(*amount)
		a.Currency = currency
	}
	return a, nil
}

// IsMonetary reports whether the agreement has a positive amount.
func (a Agreement) IsMonetary() bool {
	return a.Amount.Valid && a.Amount.Decimal.IsPositive()
}

// EffectiveDueDate is the next due date for services, the due date otherwise.
func (a Agreement) EffectiveDueDate() time.Time {
	if a.Kind == KindService && a.NextDueDate != nil {
		return *a.NextDueDate
	}
	return a.DueDate
}

// AwaitingConsent reports whether the agreement is blocked on the
// borrower's opt-in.
func (a Agreement) AwaitingConsent() bool {
	return a.OptInRequired && a.Status == StatusPendingConfirmation
}

// Transition moves the agreement to status to.
func (a *Agreement) Transition(to Status, now time.Time) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = now
	if to == StatusCompleted {
		a.CompletedAt = &now
	}
	if to == StatusActive {
		a.OptInRequired = false
	}
	return nil
}

// Cancel closes the agreement and records why in its metadata.
func (a *Agreement) Cancel(reason string, now time.Time) error {
	if err := a.Transition(StatusCancelled, now); err != nil {
		return err
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	a.Metadata["cancel_reason"] = reason
	return nil
}

// Reschedule moves the (next) due date and reopens the agreement.
func (a *Agreement) Reschedule(due time.Time, now time.Time) error {
	if !a.Status.Open() && a.Status != StatusPendingConfirmation {
		return fmt.Errorf("%w: cannot reschedule a %s agreement", ErrInvalidTransition, a.Status)
	}
	if a.Kind == KindService {
		a.NextDueDate = &due
	} else {
		a.DueDate = due
	}
	a.ReminderCount = 0
	a.UpdatedAt = now
	if a.Status.Open() && a.Status != StatusActive {
		return a.Transition(StatusActive, now)
	}
	return nil
}

// RecordPayment completes a loan, or advances a service to its next period.
func (a *Agreement) RecordPayment(now time.Time) error {
	if a.Kind != KindService {
		return a.Transition(StatusCompleted, now)
	}
	if !a.Status.Open() {
		return fmt.Errorf("%w: cannot record payment on a %s service", ErrInvalidTransition, a.Status)
	}
	next, err := NextDue(a.RecurrenceRule, a.EffectiveDueDate())
	if err != nil {
		return err
	}
	a.NextDueDate = &next
	a.ReminderCount = 0
	a.UpdatedAt = now
	if a.Status != StatusActive {
		return a.Transition(StatusActive, now)
	}
	return nil
}

// FormatMoney renders 15000 CLP as "$15.000".
func FormatMoney(d decimal.Decimal, currency string) string {
	s := d.Round(0).StringFixed(0)
	if currency != "" && currency != "CLP" {
		s = d.StringFixed(2)
	}
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg, s = true, s[1:]
	}
	intPart, frac := s, ""
	for i := range s {
		if s[i] == '.' {
			intPart, frac = s[:i], ","+s[i+1:]
			break
		}
	}
	var out []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, intPart[i])
	}
	res := "$" + string(out) + frac
	if neg {
		res = "-" + res
	}
	return res
}
