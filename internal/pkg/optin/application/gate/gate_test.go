package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agreementadapter "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/adapter"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactadapter "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/adapter"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
	notificationadapter "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/adapter"
	"github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/usecase"
	outboundusecase "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/usecase"
	outboundadapter "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/adapter"
)

type harness struct {
	gate          *Gate
	contacts      *contactadapter.MemoryContactRepository
	notifications *notificationadapter.MemoryNotificationRepository
	sender        *outboundadapter.RecordingSender
	tenantID      string
	partyID       string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		contacts:      contactadapter.NewMemoryContactRepository(),
		notifications: notificationadapter.NewMemoryNotificationRepository(),
		sender:        outboundadapter.NewRecordingSender(),
	}
	agreements := agreementadapter.NewMemoryAgreementRepository()
	notify := notificationusecase.NewNotifyTenantUseCase(h.notifications, nil)
	dispatch := outboundusecase.NewDispatchMessageUseCase(h.sender, nil)

	h.tenantID = h.contacts.PutTenant(contact.Tenant{Name: "Ana"})
	c, err := contact.NewContact(h.tenantID, "Pedro", "+56922222222", "", time.Now())
	require.NoError(t, err)
	h.partyID, err = h.contacts.Create(context.Background(), *c)
	require.NoError(t, err)

	h.gate = NewGate(h.contacts,
		usecase.NewRequestOptInUseCase(h.contacts, dispatch, "opt_in_request", "es"),
		usecase.NewAcceptOptInUseCase(h.contacts, agreements, notify),
		usecase.NewRejectOptInUseCase(h.contacts, agreements, notify),
	)
	return h
}

// dueDateStep stands in for a gated flow step that already has a party.
func (h *harness) dueDateStep() conversation.Node {
	return conversation.Step{
		ID:    conversation.StepAwaitingDueDate,
		Gated: true,
		Handle: func(c conversation.Context, _ conversation.Turn) conversation.Context {
			return c.WithCounterparty(&conversation.Party{ContactID: h.partyID, Name: "Pedro"})
		},
		To:  conversation.Goto(conversation.StepConfirming),
		Ask: func(conversation.Context) string { return "¿Cuándo?" },
	}
}

func (h *harness) turn(input string) conversation.Turn {
	return conversation.Turn{TenantID: h.tenantID, Input: input, Now: time.Now(), Location: time.UTC}
}

func (h *harness) optedIn(t *testing.T) contact.OptInStatus {
	t.Helper()
	c, err := h.contacts.Get(context.Background(), h.tenantID, h.partyID)
	require.NoError(t, err)
	return c.OptInStatus
}

func TestWrapDivertsToConsent(t *testing.T) {
	h := newHarness(t)
	node := h.gate.Wrap(h.dueDateStep())

	assert.Equal(t, conversation.StepAwaitingDueDate, node.Name())
	assert.Equal(t, "¿Cuándo?", node.Prompt(conversation.NewContext(conversation.FlowNewLoan)))

	next, step, err := node.Advance(context.Background(), conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepOptInPending, step)
	require.NotNil(t, next.OptIn)
	assert.Equal(t, h.partyID, next.OptIn.ContactID)
	assert.True(t, next.OptIn.Pending)
	assert.True(t, next.OptIn.Requested)
	assert.Equal(t, conversation.StepConfirming, next.OptIn.ResumeStep)

	msgs := h.sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "+56922222222", msgs[0].To)
}

func TestWrapPassesOptedInContacts(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.contacts.SetOptInStatus(context.Background(), h.tenantID, h.partyID, contact.OptInAccepted, time.Now()))

	next, step, err := h.gate.Wrap(h.dueDateStep()).Advance(context.Background(), conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepConfirming, step)
	assert.Nil(t, next.OptIn)
	assert.Empty(t, h.sender.Messages())
}

func TestWrapGatesEvenWhenRequestFails(t *testing.T) {
	h := newHarness(t)
	h.sender.Fail = errors.New("provider down")

	next, step, err := h.gate.Wrap(h.dueDateStep()).Advance(context.Background(), conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepOptInPending, step)
	assert.False(t, next.OptIn.Requested)
}

func TestConsentAccept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pending, _, err := h.gate.Wrap(h.dueDateStep()).Advance(ctx, conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)

	consent := h.gate.ConsentStep()
	assert.Equal(t, conversation.StepOptInPending, consent.Name())
	assert.Contains(t, consent.Prompt(pending), "Pedro")

	next, step, err := consent.Advance(ctx, pending, h.turn("Aceptar"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepConfirming, step)
	assert.False(t, next.OptIn.Pending)
	assert.Equal(t, conversation.DecisionAccepted, next.OptIn.Decision)
	assert.Equal(t, contact.OptInAccepted, h.optedIn(t))
	assert.True(t, pending.OptIn.Pending, "input context must not change")
}

func TestConsentReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pending, _, err := h.gate.Wrap(h.dueDateStep()).Advance(ctx, conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)

	next, step, err := h.gate.ConsentStep().Advance(ctx, pending, h.turn("rechazar"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepCancelled, step)
	assert.Equal(t, conversation.DecisionRejected, next.OptIn.Decision)
	assert.Contains(t, next.Notice, "Pedro")
	assert.Equal(t, contact.OptInRejected, h.optedIn(t))

	notes, err := h.notifications.List(ctx, h.tenantID, true, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestConsentRejectAsksAgainNextTime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	node := h.gate.Wrap(h.dueDateStep())
	pending, _, err := node.Advance(ctx, conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)
	_, _, err = h.gate.ConsentStep().Advance(ctx, pending, h.turn("no"))
	require.NoError(t, err)

	_, step, err := node.Advance(ctx, conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepOptInPending, step)
}

func TestConsentDefer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	node := h.gate.Wrap(h.dueDateStep())
	pending, _, err := node.Advance(ctx, conversation.NewContext(conversation.FlowNewLoan), h.turn("mañana"))
	require.NoError(t, err)

	next, step, err := h.gate.ConsentStep().Advance(ctx, pending, h.turn("omitir"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepConfirming, step)
	assert.True(t, next.OptIn.Pending)
	assert.Equal(t, conversation.DecisionDeferred, next.OptIn.Decision)
	assert.Equal(t, contact.OptInPending, h.optedIn(t))

	// a deferred decision lets later gated steps through
	_, step, err = node.Advance(ctx, next, h.turn("mañana"))
	require.NoError(t, err)
	assert.Equal(t, conversation.StepConfirming, step)
}

func TestConsentValidate(t *testing.T) {
	h := newHarness(t)
	consent := h.gate.ConsentStep()
	pending := conversation.NewContext(conversation.FlowNewLoan)
	pending.OptIn = &conversation.OptInOverlay{ContactID: h.partyID, Pending: true, ResumeStep: conversation.StepConfirming}

	assert.True(t, consent.Validate(pending, h.turn("acepto")))
	assert.True(t, consent.Validate(pending, h.turn("más tarde")))
	assert.False(t, consent.Validate(pending, h.turn("quizás")))
	assert.False(t, consent.Validate(conversation.NewContext(conversation.FlowNewLoan), h.turn("acepto")))
	assert.NotEmpty(t, consent.Reprompt(pending))
}
