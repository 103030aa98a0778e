package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	calls int
	err   error
}

func (d *stubDirectory) ResolveParty(_ context.Context, _ string, name, phone string) (*Party, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return &Party{ContactID: "c-" + name, Name: name, Phone: phone}, nil
}

type stubTargets struct{ target *TargetDraft }

func (s stubTargets) FindOpenAgreement(context.Context, string, string, FlowName) (*TargetDraft, error) {
	return s.target, nil
}

// markGate wraps gated nodes so tests can see the decoration happened.
type markGate struct{}

type marked struct{ Node }

func (markGate) Wrap(inner Node) Node { return marked{inner} }

func (markGate) ConsentStep() Node {
	return Step{ID: StepOptInPending, Check: always, To: Goto(StepConfirming)}
}

func turn(input string) Turn {
	return Turn{
		TenantID:  "t1",
		ContactID: "owner",
		Input:     input,
		Now:       time.Date(2025, time.February, 27, 15, 0, 0, 0, time.UTC),
		Location:  time.UTC,
		Currency:  "CLP",
	}
}

func advance(t *testing.T, def *Definition, step StepName, c Context, input string) (Context, StepName) {
	t.Helper()
	node, ok := def.Node(step)
	require.True(t, ok, "step %s", step)
	require.True(t, node.Validate(c, turn(input)), "input %q at %s", input, step)
	next, to, err := node.Advance(context.Background(), c, turn(input))
	require.NoError(t, err)
	require.NoError(t, next.Check())
	return next, to
}

func TestNewLoanFlowWithoutGate(t *testing.T) {
	reg := NewRegistry(&stubDirectory{}, nil, nil)
	def, err := reg.Definition(FlowNewLoan)
	require.NoError(t, err)

	c := NewContext(FlowNewLoan)
	c, step := advance(t, def, StepInit, c, "nuevo préstamo")
	assert.Equal(t, StepAwaitingContact, step)

	c, step = advance(t, def, step, c, "Juan")
	assert.Equal(t, StepAwaitingItem, step)
	assert.Equal(t, "c-Juan", c.Loan.Counterparty.ContactID)

	c, step = advance(t, def, step, c, "$10.000")
	assert.Equal(t, StepAwaitingDueDate, step)
	require.NotNil(t, c.Loan.Amount)
	assert.True(t, decimal.NewFromInt(10000).Equal(*c.Loan.Amount))
	assert.Equal(t, "CLP", c.Loan.Currency)

	c, step = advance(t, def, step, c, "mañana")
	assert.Equal(t, StepConfirming, step)
	assert.Equal(t, Date{2025, time.February, 28}, *c.Loan.DueDate)

	_, step = advance(t, def, step, c, "sí")
	assert.Equal(t, StepComplete, step)

	_, ok := def.Node(StepOptInPending)
	assert.False(t, ok)
}

func TestConfirmingNoCancels(t *testing.T) {
	def, err := NewRegistry(&stubDirectory{}, nil, nil).Definition(FlowNewLoan)
	require.NoError(t, err)
	_, step := advance(t, def, StepConfirming, NewContext(FlowNewLoan), "no")
	assert.Equal(t, StepCancelled, step)
}

func TestValidationRejects(t *testing.T) {
	def, err := NewRegistry(&stubDirectory{}, nil, nil).Definition(FlowNewLoan)
	require.NoError(t, err)
	c := NewContext(FlowNewLoan)

	for step, input := range map[StepName]string{
		StepAwaitingContact: "J",
		StepAwaitingItem:    "ab",
		StepAwaitingDueDate: "ayer",
		StepConfirming:      "quizás",
	} {
		node, ok := def.Node(step)
		require.True(t, ok)
		assert.False(t, node.Validate(c, turn(input)), "%s %q", step, input)
		assert.NotEmpty(t, node.Reprompt(c))
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	def, err := NewRegistry(&stubDirectory{}, nil, nil).Definition(FlowNewLoan)
	require.NoError(t, err)

	c := NewContext(FlowNewLoan)
	c.Loan.Counterparty = &Party{ContactID: "c1", Name: "Juan"}
	before := c.Clone()

	node, _ := def.Node(StepAwaitingItem)
	_, _, err = node.Advance(context.Background(), c, turn("bicicleta"))
	require.NoError(t, err)
	assert.Equal(t, before, c)
	assert.Empty(t, c.Loan.Item)
}

func TestTransitionsAreDeterministic(t *testing.T) {
	def, err := NewRegistry(&stubDirectory{}, nil, nil).Definition(FlowNewLoan)
	require.NoError(t, err)

	c := NewContext(FlowNewLoan)
	c.Loan.Counterparty = &Party{ContactID: "c1", Name: "Juan"}
	node, _ := def.Node(StepAwaitingItem)

	first, step1, err := node.Advance(context.Background(), c, turn("bicicleta"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, step, err := node.Advance(context.Background(), c, turn("bicicleta"))
		require.NoError(t, err)
		assert.Equal(t, step1, step)
		assert.Equal(t, first, again)
	}
}

func TestEnrichErrorKeepsContext(t *testing.T) {
	boom := errors.New("db down")
	def, err := NewRegistry(&stubDirectory{err: boom}, nil, nil).Definition(FlowNewLoan)
	require.NoError(t, err)

	c := NewContext(FlowNewLoan)
	node, _ := def.Node(StepAwaitingContact)
	got, step, err := node.Advance(context.Background(), c, turn("Juan"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StepAwaitingContact, step)
	assert.Equal(t, c, got)
}

func TestGateDecoratesOnlyGatedFlows(t *testing.T) {
	reg := NewRegistry(&stubDirectory{}, nil, markGate{})

	loan, err := reg.Definition(FlowNewLoan)
	require.NoError(t, err)
	due, _ := loan.Node(StepAwaitingDueDate)
	assert.IsType(t, marked{}, due)
	item, _ := loan.Node(StepAwaitingItem)
	assert.IsType(t, Step{}, item)
	_, ok := loan.Node(StepOptInPending)
	assert.True(t, ok)
	assert.Contains(t, loan.Steps, StepOptInPending)

	service, err := reg.Definition(FlowNewService)
	require.NoError(t, err)
	rec, _ := service.Node(StepAwaitingRecurrence)
	assert.IsType(t, marked{}, rec)

	inquiry, err := reg.Definition(FlowGeneralInquiry)
	require.NoError(t, err)
	_, ok = inquiry.Node(StepOptInPending)
	assert.False(t, ok)

	_, err = reg.Definition("unknown")
	assert.ErrorIs(t, err, ErrUnknownFlow)

	for _, name := range []FlowName{FlowNewLoan, FlowNewService, FlowReschedule, FlowConfirmReturn, FlowConfirmPayment, FlowGeneralInquiry} {
		_, err := reg.Definition(name)
		assert.NoError(t, err, name)
	}
}

func TestRescheduleFlow(t *testing.T) {
	due := Date{2025, time.February, 28}
	reg := NewRegistry(nil, stubTargets{target: &TargetDraft{AgreementID: "a1", Title: "Préstamo: bici", DueDate: &due}}, nil)
	def, err := reg.Definition(FlowReschedule)
	require.NoError(t, err)

	c, step := advance(t, def, StepInit, NewContext(FlowReschedule), "reprogramar")
	assert.Equal(t, StepAwaitingRescheduleDate, step)
	assert.Equal(t, "a1", c.Target.AgreementID)

	c, step = advance(t, def, step, c, "2")
	assert.Equal(t, StepConfirming, step)
	assert.Equal(t, Date{2025, time.March, 2}, *c.Target.NewDate)
}

func TestFollowUpWithoutTargetCancels(t *testing.T) {
	def, err := NewRegistry(nil, stubTargets{}, nil).Definition(FlowConfirmReturn)
	require.NoError(t, err)

	c, step := advance(t, def, StepInit, NewContext(FlowConfirmReturn), "me devolvieron")
	assert.Equal(t, StepCancelled, step)
	assert.Equal(t, NoTargetNotice(FlowConfirmReturn), c.Notice)
}

func TestContextCheck(t *testing.T) {
	assert.NoError(t, NewContext(FlowNewService).Check())
	bad := NewContext(FlowNewLoan)
	bad.Service = &ServiceDraft{}
	assert.Error(t, bad.Check())
}

func TestOptInPromptReflectsRequest(t *testing.T) {
	c := NewContext(FlowNewLoan).WithCounterparty(&Party{ContactID: "c-2", Name: "Juan"})

	c.OptIn = &OptInOverlay{ContactID: "c-2", Pending: true}
	unsent := OptInPrompt(c)
	assert.Contains(t, unsent, "Juan")
	assert.Contains(t, unsent, "no le envié")

	c.OptIn.Requested = true
	assert.Contains(t, OptInPrompt(c), "Le envié una solicitud")
	assert.NotContains(t, OptInPrompt(c), "no le envié")
}
