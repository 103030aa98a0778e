package gate

import (
	"context"
	"fmt"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/usecase"
)

// Gate diverts gated steps to the consent step while the counterparty has
// not opted in. It implements conversation.OptInGate.
type Gate struct {
	Contacts contactport.ContactRepository
	Request  *usecase.RequestOptInUseCase
	Accept   *usecase.AcceptOptInUseCase
	Reject   *usecase.RejectOptInUseCase
}

var _ conversation.OptInGate = (*Gate)(nil)

func NewGate(contacts contactport.ContactRepository, request *usecase.RequestOptInUseCase, accept *usecase.AcceptOptInUseCase, reject *usecase.RejectOptInUseCase) *Gate {
	return &Gate{Contacts: contacts, Request: request, Accept: accept, Reject: reject}
}

func (g *Gate) Wrap(inner conversation.Node) conversation.Node {
	return &gatedNode{Node: inner, gate: g}
}

func (g *Gate) ConsentStep() conversation.Node {
	return &consentNode{gate: g}
}

type gatedNode struct {
	conversation.Node
	gate *Gate
}

// Advance runs the wrapped step and, unless the counterparty already
// consented or the tenant chose to go on without it, parks the flow on
// the consent step with the wrapped step's successor as resume point.
func (n *gatedNode) Advance(ctx context.Context, c conversation.Context, t conversation.Turn) (conversation.Context, conversation.StepName, error) {
	next, step, err := n.Node.Advance(ctx, c, t)
	if err != nil || step == conversation.StepCancelled {
		return next, step, err
	}

	party := next.Counterparty()
	if party == nil || party.ContactID == "" {
		return next, step, nil
	}
	if o := next.OptIn; o != nil && o.ContactID == party.ContactID && o.Decision == conversation.DecisionDeferred {
		return next, step, nil
	}

	ct, err := n.gate.Contacts.Get(ctx, t.TenantID, party.ContactID)
	if err != nil {
		return c, n.Name(), fmt.Errorf("load counterparty: %w", err)
	}
	if ct.OptedIn() {
		return next, step, nil
	}

	requested := false
	if n.gate.Request != nil {
		requested, err = n.gate.Request.Execute(ctx, usecase.RequestOptInInput{TenantID: t.TenantID, ContactID: party.ContactID})
		if err != nil {
			// the consent step still works without the outbound request
			logger.Warn(ctx, "send opt-in request", "error", err, "contact_id", party.ContactID)
			requested = false
		}
	}
	next.OptIn = &conversation.OptInOverlay{
		ContactID:  party.ContactID,
		Pending:    true,
		Requested:  requested,
		ResumeStep: step,
	}
	return next, conversation.StepOptInPending, nil
}

// consentNode is the opt_in_pending step shared by every gated flow.
type consentNode struct {
	gate *Gate
}

func (n *consentNode) Name() conversation.StepName { return conversation.StepOptInPending }

func (n *consentNode) RequiresOptIn() bool { return false }

func (n *consentNode) Validate(c conversation.Context, t conversation.Turn) bool {
	if c.OptIn == nil {
		return false
	}
	text := t.Text()
	return conversation.IsOptInAccept(text) || conversation.IsOptInReject(text) || conversation.IsOptInDefer(text)
}

func (n *consentNode) Advance(ctx context.Context, c conversation.Context, t conversation.Turn) (conversation.Context, conversation.StepName, error) {
	next := c.Clone()
	in := usecase.ConsentInput{TenantID: t.TenantID, ContactID: next.OptIn.ContactID}
	text := t.Text()

	switch {
	case conversation.IsOptInAccept(text):
		if _, err := n.gate.Accept.Execute(ctx, in); err != nil {
			return c, n.Name(), err
		}
		next.OptIn.Pending = false
		next.OptIn.Decision = conversation.DecisionAccepted
		return next, next.OptIn.ResumeStep, nil
	case conversation.IsOptInReject(text):
		if _, err := n.gate.Reject.Execute(ctx, in); err != nil {
			return c, n.Name(), err
		}
		next.OptIn.Pending = false
		next.OptIn.Decision = conversation.DecisionRejected
		next.Notice = conversation.OptInRejectedNotice(next)
		return next, conversation.StepCancelled, nil
	default:
		next.OptIn.Decision = conversation.DecisionDeferred
		return next, next.OptIn.ResumeStep, nil
	}
}

func (n *consentNode) Prompt(c conversation.Context) string { return conversation.OptInPrompt(c) }

func (n *consentNode) Reprompt(c conversation.Context) string { return conversation.OptInRetry(c) }
