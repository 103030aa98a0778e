package domain

import (
	"context"
	"fmt"
)

// Directory resolves the counterparty named in a dialogue, creating it when
// the tenant has never seen it.
type Directory interface {
	ResolveParty(ctx context.Context, tenantID, name, phone string) (*Party, error)
}

// TargetFinder locates the agreement a follow-up flow acts on. It returns
// nil and no error when there is none.
type TargetFinder interface {
	FindOpenAgreement(ctx context.Context, tenantID, contactID string, flow FlowName) (*TargetDraft, error)
}

// OptInGate decorates steps that need the counterparty's consent and
// provides the consent-pending step they divert to.
type OptInGate interface {
	Wrap(inner Node) Node
	ConsentStep() Node
}

// Registry is the static table of flow definitions.
type Registry struct {
	defs map[FlowName]*Definition
}

// NewRegistry builds every flow. With a nil gate, gated steps run as plain
// steps.
func NewRegistry(dir Directory, targets TargetFinder, gate OptInGate) *Registry {
	defs := []*Definition{
		newLoanFlow(dir),
		newServiceFlow(dir),
		rescheduleFlow(targets),
		confirmReturnFlow(targets),
		confirmPaymentFlow(targets),
		generalInquiryFlow(),
	}
	r := &Registry{defs: make(map[FlowName]*Definition, len(defs))}
	for _, d := range defs {
		if gate != nil && d.RequiresOptIn() {
			d.decorate(gate.Wrap, gate.ConsentStep())
		}
		r.defs[d.Name] = d
	}
	return r
}

func (r *Registry) Definition(name FlowName) (*Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, name)
	}
	return d, nil
}
