package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	repository "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

// ProcessInputInput is one inbound message addressed to the engine. Flow is
// optional and forces a flow (buttons, commands).
type ProcessInputInput struct {
	TenantID  string
	ContactID string
	Text      string
	Flow      conversation.FlowName
	Location  *time.Location
	Currency  string
}

// ProcessInputResult is the engine's answer. Valid is false on the retry
// path, in which case nothing was written.
type ProcessInputResult struct {
	Reply         string
	Flow          conversation.FlowName
	NextStep      conversation.StepName
	Completed     bool
	Valid         bool
	RequiresOptIn bool
	AgreementID   string
	Context       conversation.Context
}

// ProcessInputUseCase is the flow engine: one call per inbound message, all
// coordination through the state store. Concurrent messages from the same
// contact are last-write-wins on the state row.
type ProcessInputUseCase struct {
	Registry  *conversation.Registry
	States    repository.StateRepository
	Finalizer conversation.Finalizer
	TTL       time.Duration
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func NewProcessInputUseCase(reg *conversation.Registry, states repository.StateRepository, fin conversation.Finalizer, ttl time.Duration, m *metrics.Metrics) *ProcessInputUseCase {
	return &ProcessInputUseCase{
		Registry:  reg,
		States:    states,
		Finalizer: fin,
		TTL:       ttl,
		Metrics:   m,
		Now:       time.Now,
	}
}

func (uc *ProcessInputUseCase) Execute(ctx context.Context, in ProcessInputInput) (*ProcessInputResult, error) {
	if in.TenantID == "" || in.ContactID == "" {
		return nil, ErrInvalidInput
	}
	now := uc.Now()
	key := conversation.Key{TenantID: in.TenantID, ContactID: in.ContactID}

	if conversation.IsCancel(conversation.Fold(in.Text)) {
		return uc.cancelUC().Execute(ctx, CancelConversationInput{TenantID: in.TenantID, ContactID: in.ContactID})
	}

	state, err := uc.States.Load(ctx, key, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if state != nil && in.Flow != "" && state.Flow != in.Flow {
		logger.Debug(ctx, "explicit flow replaces active dialogue", "from", state.Flow, "to", in.Flow)
		state = nil
	}
	if state == nil {
		flow := in.Flow
		if flow == "" {
			flow = conversation.DetectIntent(in.Text)
		}
		fresh := conversation.NewState(key, flow, now, uc.TTL)
		state = &fresh
		uc.Metrics.FlowStarted(string(flow))
	}

	def, err := uc.Registry.Definition(state.Flow)
	if err != nil {
		return nil, err
	}
	if err := state.Context.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", conversation.ErrUnknownStep, err)
	}
	node, ok := def.Node(state.Step)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", conversation.ErrUnknownStep, state.Flow, state.Step)
	}

	turn := conversation.Turn{
		TenantID:  in.TenantID,
		ContactID: in.ContactID,
		Input:     in.Text,
		Now:       now,
		Location:  in.Location,
		Currency:  in.Currency,
	}
	if turn.Location == nil {
		turn.Location = time.UTC
	}

	if !node.Validate(state.Context, turn) {
		uc.Metrics.ValidationFailed(string(state.Flow), string(state.Step))
		return &ProcessInputResult{
			Reply:         node.Reprompt(state.Context),
			Flow:          state.Flow,
			NextStep:      state.Step,
			RequiresOptIn: state.Context.OptInOutstanding(),
			Context:       state.Context,
		}, nil
	}

	next, step, err := node.Advance(ctx, state.Context, turn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	switch step {
	case conversation.StepComplete:
		return uc.complete(ctx, *state, next, turn)
	case conversation.StepCancelled:
		if err := uc.States.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		uc.Metrics.FlowCancelled(string(state.Flow))
		reply := next.Notice
		if reply == "" {
			reply = conversation.ReplyCancelled
		}
		return &ProcessInputResult{Reply: reply, Flow: state.Flow, NextStep: step, Valid: true, Context: next}, nil
	}

	nextNode, ok := def.Node(step)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", conversation.ErrUnknownStep, state.Flow, step)
	}
	saved := state.Advance(step, next, now, uc.TTL)
	if err := uc.States.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &ProcessInputResult{
		Reply:         nextNode.Prompt(next),
		Flow:          state.Flow,
		NextStep:      step,
		Valid:         true,
		RequiresOptIn: step == conversation.StepOptInPending || next.OptInOutstanding(),
		Context:       next,
	}, nil
}

// complete finalizes before touching the state, so a failed finalizer leaves
// the dialogue at its previous step and the user can simply answer again.
func (uc *ProcessInputUseCase) complete(ctx context.Context, state conversation.State, next conversation.Context, turn conversation.Turn) (*ProcessInputResult, error) {
	outcome, err := uc.Finalizer.Finalize(ctx, conversation.Completion{
		StateID:   state.ID,
		TenantID:  state.TenantID,
		ContactID: state.ContactID,
		Flow:      state.Flow,
		Context:   next,
		Turn:      turn,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: finalize %s: %v", ErrPersistence, state.Flow, err)
	}
	if err := uc.States.Delete(ctx, state.Key()); err != nil {
		// the agreement is committed; the stale state expires on its own
		logger.Warn(ctx, "delete completed conversation state", "error", err, "state_id", state.ID)
	}
	uc.Metrics.FlowCompleted(string(state.Flow))
	return &ProcessInputResult{
		Reply:         outcome.Reply,
		Flow:          state.Flow,
		NextStep:      conversation.StepComplete,
		Completed:     true,
		Valid:         true,
		RequiresOptIn: next.OptInOutstanding(),
		AgreementID:   outcome.AgreementID,
		Context:       next,
	}, nil
}

func (uc *ProcessInputUseCase) cancelUC() *CancelConversationUseCase {
	return &CancelConversationUseCase{States: uc.States, Metrics: uc.Metrics, Now: uc.Now}
}

// Active reports whether the contact has an unexpired dialogue.
func (uc *ProcessInputUseCase) Active(ctx context.Context, tenantID, contactID string) (bool, error) {
	state, err := uc.States.Load(ctx, conversation.Key{TenantID: tenantID, ContactID: contactID}, uc.Now())
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return state != nil, nil
}
