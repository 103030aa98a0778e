package domain

import (
	"context"
	"errors"
	"time"
)

// FlowName identifies a dialogue definition.
type FlowName string

const (
	FlowNewLoan        FlowName = "new_loan"
	FlowNewService     FlowName = "new_service"
	FlowReschedule     FlowName = "reschedule"
	FlowConfirmReturn  FlowName = "confirm_return"
	FlowConfirmPayment FlowName = "confirm_payment"
	FlowGeneralInquiry FlowName = "general_inquiry"
)

// StepName identifies a node inside a flow.
type StepName string

const (
	StepInit                   StepName = "init"
	StepAwaitingContact        StepName = "awaiting_contact"
	StepAwaitingItem           StepName = "awaiting_item"
	StepAwaitingDueDate        StepName = "awaiting_due_date"
	StepAwaitingServiceDetails StepName = "awaiting_service_details"
	StepAwaitingRecurrence     StepName = "awaiting_recurrence"
	StepAwaitingRescheduleDate StepName = "awaiting_reschedule_date"
	StepOptInPending           StepName = "opt_in_pending"
	StepConfirming             StepName = "confirming"
	StepComplete               StepName = "complete"
	StepCancelled              StepName = "cancelled"
)

// Terminal steps end the dialogue; no state survives them.
func (s StepName) Terminal() bool {
	return s == StepComplete || s == StepCancelled
}

var (
	ErrUnknownFlow = errors.New("conversation: unknown flow")
	ErrUnknownStep = errors.New("conversation: unknown step")
)

// Turn is one inbound message as seen by a step.
type Turn struct {
	TenantID  string
	ContactID string
	Input     string
	Now       time.Time
	Location  *time.Location
	Currency  string
}

// Text is the input lowercased, accent-folded and trimmed.
func (t Turn) Text() string { return Fold(t.Input) }

// Today is the local civil date of the turn.
func (t Turn) Today() Date { return DateOf(t.Now, t.Location) }

// Node is one executable step of a flow. Validate must not have side
// effects; Advance returns the updated context and the next step.
type Node interface {
	Name() StepName
	RequiresOptIn() bool
	Validate(c Context, t Turn) bool
	Advance(ctx context.Context, c Context, t Turn) (Context, StepName, error)
	Prompt(c Context) string
	Reprompt(c Context) string
}

// Transition picks the next step once a step's input was accepted.
type Transition interface {
	Next(c Context, t Turn) StepName
}

// Goto is a static transition.
type Goto StepName

func (g Goto) Next(Context, Turn) StepName { return StepName(g) }

// Branch is a function transition. It must be deterministic in its inputs.
type Branch func(c Context, t Turn) StepName

func (b Branch) Next(c Context, t Turn) StepName { return b(c, t) }

// Step is the declarative Node used by every built-in flow.
type Step struct {
	ID     StepName
	Gated  bool
	Check  func(c Context, t Turn) bool
	Handle func(c Context, t Turn) Context
	// Enrich performs lookups after Handle; its errors are infrastructure
	// failures, never validation failures.
	Enrich func(ctx context.Context, c Context, t Turn) (Context, error)
	To     Transition
	Ask    func(c Context) string
	Retry  func(c Context) string
}

var _ Node = Step{}

func (s Step) Name() StepName { return s.ID }

func (s Step) RequiresOptIn() bool { return s.Gated }

func (s Step) Validate(c Context, t Turn) bool {
	if s.Check == nil {
		return true
	}
	return s.Check(c, t)
}

// Advance works on a clone, so the caller's context is never mutated.
func (s Step) Advance(ctx context.Context, c Context, t Turn) (Context, StepName, error) {
	next := c.Clone()
	if s.Handle != nil {
		next = s.Handle(next, t)
	}
	if s.Enrich != nil {
		var err error
		if next, err = s.Enrich(ctx, next, t); err != nil {
			return c, s.ID, err
		}
	}
	if s.To == nil {
		return next, StepComplete, nil
	}
	return next, s.To.Next(next, t), nil
}

func (s Step) Prompt(c Context) string {
	if s.Ask == nil {
		return ""
	}
	return s.Ask(c)
}

func (s Step) Reprompt(c Context) string {
	if s.Retry != nil {
		return s.Retry(c)
	}
	return "No entendí tu respuesta. " + s.Prompt(c)
}

// Definition is an immutable flow: ordered step names and their nodes.
type Definition struct {
	Name  FlowName
	Steps []StepName
	nodes map[StepName]Node
}

func NewDefinition(name FlowName, nodes ...Node) *Definition {
	d := &Definition{Name: name, nodes: make(map[StepName]Node, len(nodes))}
	for _, n := range nodes {
		d.Steps = append(d.Steps, n.Name())
		d.nodes[n.Name()] = n
	}
	return d
}

func (d *Definition) Node(step StepName) (Node, bool) {
	n, ok := d.nodes[step]
	return n, ok
}

// RequiresOptIn reports whether any step is gated on counterparty consent.
func (d *Definition) RequiresOptIn() bool {
	for _, n := range d.nodes {
		if n.RequiresOptIn() {
			return true
		}
	}
	return false
}

// decorate replaces gated nodes with wrap(node) and appends extra nodes.
func (d *Definition) decorate(wrap func(Node) Node, extra ...Node) {
	for name, n := range d.nodes {
		if n.RequiresOptIn() {
			d.nodes[name] = wrap(n)
		}
	}
	for _, n := range extra {
		if _, exists := d.nodes[n.Name()]; !exists {
			d.Steps = append(d.Steps, n.Name())
		}
		d.nodes[n.Name()] = n
	}
}
