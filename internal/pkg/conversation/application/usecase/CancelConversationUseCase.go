package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	repository "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
)

type CancelConversationInput struct {
	TenantID  string
	ContactID string
}

// CancelConversationUseCase drops the active dialogue of a contact, if any.
type CancelConversationUseCase struct {
	States  repository.StateRepository
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewCancelConversationUseCase(states repository.StateRepository, m *metrics.Metrics) *CancelConversationUseCase {
	return &CancelConversationUseCase{States: states, Metrics: m, Now: time.Now}
}

func (uc *CancelConversationUseCase) Execute(ctx context.Context, in CancelConversationInput) (*ProcessInputResult, error) {
	if in.TenantID == "" || in.ContactID == "" {
		return nil, ErrInvalidInput
	}
	key := conversation.Key{TenantID: in.TenantID, ContactID: in.ContactID}

	state, err := uc.States.Load(ctx, key, uc.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := uc.States.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if state == nil {
		return &ProcessInputResult{Reply: conversation.ReplyNothingActive, NextStep: conversation.StepCancelled, Valid: true}, nil
	}
	uc.Metrics.FlowCancelled(string(state.Flow))
	return &ProcessInputResult{
		Reply:    conversation.ReplyCancelled,
		Flow:     state.Flow,
		NextStep: conversation.StepCancelled,
		Valid:    true,
		Context:  state.Context,
	}, nil
}
