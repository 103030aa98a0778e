package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
)

// TransitionAgreementInput moves an agreement to Status. A non-zero DueDate
// reschedules instead; Reason is kept with cancellations.
type TransitionAgreementInput struct {
	TenantID    string
	AgreementID string
	Status      agreement.Status
	DueDate     time.Time
	Reason      string
}

type TransitionAgreementUseCase struct {
	Agreements port.AgreementRepository
	Now        func() time.Time
}

func NewTransitionAgreementUseCase(agreements port.AgreementRepository) *TransitionAgreementUseCase {
	return &TransitionAgreementUseCase{Agreements: agreements, Now: time.Now}
}

func (uc *TransitionAgreementUseCase) Execute(ctx context.Context, in TransitionAgreementInput) (*agreement.Agreement, error) {
	a, err := uc.Agreements.Get(ctx, in.TenantID, in.AgreementID)
	if err != nil {
		if errors.Is(err, agreement.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	now := uc.Now()

	switch {
	case !in.DueDate.IsZero():
		err = a.Reschedule(agreement.CivilDate(in.DueDate), now)
	case in.Status == agreement.StatusCancelled:
		reason := in.Reason
		if reason == "" {
			reason = "cancelled_by_tenant"
		}
		err = a.Cancel(reason, now)
	case in.Status == agreement.StatusCompleted:
		err = a.RecordPayment(now)
	case in.Status != "":
		err = a.Transition(in.Status, now)
	default:
		return nil, fmt.Errorf("%w: status or due date is required", agreement.ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.Agreements.Update(ctx, *a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return a, nil
}
