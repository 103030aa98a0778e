package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
)

// Party is the counterparty of a flow, resolved against the directory.
type Party struct {
	ContactID string `json:"contact_id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Created   bool   `json:"created,omitempty"`
}

type LoanDraft struct {
	Counterparty *Party           `json:"counterparty,omitempty"`
	Item         string           `json:"item,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	DueDate      *Date            `json:"due_date,omitempty"`
	Confirmed    bool             `json:"confirmed,omitempty"`
}

// Subject is what is being lent, for prompts.
func (l LoanDraft) Subject() string {
	if l.Amount != nil {
		return agreement.FormatMoney(*l.Amount, l.Currency)
	}
	return l.Item
}

type ServiceDraft struct {
	Counterparty *Party               `json:"counterparty,omitempty"`
	Description  string               `json:"description,omitempty"`
	Amount       *decimal.Decimal     `json:"amount,omitempty"`
	Currency     string               `json:"currency,omitempty"`
	Recurrence   agreement.Recurrence `json:"recurrence,omitempty"`
	Confirmed    bool                 `json:"confirmed,omitempty"`
}

// TargetDraft is an existing agreement acted upon by reschedule and
// confirmation flows.
type TargetDraft struct {
	AgreementID string         `json:"agreement_id,omitempty"`
	Title       string         `json:"title,omitempty"`
	Kind        agreement.Kind `json:"kind,omitempty"`
	DueDate     *Date          `json:"due_date,omitempty"`
	NewDate     *Date          `json:"new_date,omitempty"`
	Confirmed   bool           `json:"confirmed,omitempty"`
}

// Decision is the counterparty consent answer recorded by the opt-in gate.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
	DecisionDeferred Decision = "deferred"
)

// OptInOverlay remembers where to resume once consent is resolved.
type OptInOverlay struct {
	ContactID  string   `json:"contact_id"`
	Pending    bool     `json:"pending"`
	Requested  bool     `json:"requested,omitempty"`
	ResumeStep StepName `json:"resume_step"`
	Decision   Decision `json:"decision,omitempty"`
}

// Context accumulates a flow's answers. Flow is the tag; only the draft
// matching it is populated (Loan for new_loan, Service for new_service,
// Target for reschedule and the confirmation flows).
type Context struct {
	Flow    FlowName      `json:"flow"`
	Loan    *LoanDraft    `json:"loan,omitempty"`
	Service *ServiceDraft `json:"service,omitempty"`
	Target  *TargetDraft  `json:"target,omitempty"`
	OptIn   *OptInOverlay `json:"opt_in,omitempty"`
	Notice  string        `json:"notice,omitempty"`
}

// NewContext returns the empty accumulator for flow.
func NewContext(flow FlowName) Context {
	c := Context{Flow: flow}
	switch flow {
	case FlowNewLoan:
		c.Loan = &LoanDraft{}
	case FlowNewService:
		c.Service = &ServiceDraft{}
	case FlowReschedule, FlowConfirmReturn, FlowConfirmPayment:
		c.Target = &TargetDraft{}
	}
	return c
}

// Check reports a context whose populated draft does not match its tag.
func (c Context) Check() error {
	want := NewContext(c.Flow)
	if (want.Loan != nil) != (c.Loan != nil) ||
		(want.Service != nil) != (c.Service != nil) ||
		(want.Target != nil) != (c.Target != nil) {
		return fmt.Errorf("conversation: context does not match flow %q", c.Flow)
	}
	return nil
}

// Clone deep-copies the context so handlers can work on it freely.
func (c Context) Clone() Context {
	out := c
	if c.Loan != nil {
		l := *c.Loan
		l.Counterparty = c.Loan.Counterparty.clone()
		l.Amount = cloneDecimal(c.Loan.Amount)
		l.DueDate = cloneDate(c.Loan.DueDate)
		out.Loan = &l
	}
	if c.Service != nil {
		s := *c.Service
		s.Counterparty = c.Service.Counterparty.clone()
		s.Amount = cloneDecimal(c.Service.Amount)
		out.Service = &s
	}
	if c.Target != nil {
		t := *c.Target
		t.DueDate = cloneDate(c.Target.DueDate)
		t.NewDate = cloneDate(c.Target.NewDate)
		out.Target = &t
	}
	if c.OptIn != nil {
		o := *c.OptIn
		out.OptIn = &o
	}
	return out
}

// Counterparty returns the party of the active draft, if any.
func (c Context) Counterparty() *Party {
	switch {
	case c.Loan != nil:
		return c.Loan.Counterparty
	case c.Service != nil:
		return c.Service.Counterparty
	}
	return nil
}

// WithCounterparty stores p in the active draft.
func (c Context) WithCounterparty(p *Party) Context {
	switch {
	case c.Loan != nil:
		c.Loan.Counterparty = p
	case c.Service != nil:
		c.Service.Counterparty = p
	}
	return c
}

// CounterpartyName is "" when no party is set.
func (c Context) CounterpartyName() string {
	if p := c.Counterparty(); p != nil {
		return p.Name
	}
	return ""
}

// OptInOutstanding reports whether consent was requested and not granted.
func (c Context) OptInOutstanding() bool {
	return c.OptIn != nil && c.OptIn.Pending
}

func (p *Party) clone() *Party {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}
