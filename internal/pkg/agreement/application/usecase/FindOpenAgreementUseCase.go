package usecase

import (
	"context"
	"fmt"
	"time"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
)

// FindOpenAgreementUseCase picks the agreement a follow-up flow acts on:
// the contact's open agreement (either side) with the nearest due date.
type FindOpenAgreementUseCase struct {
	Agreements port.AgreementRepository
}

var _ conversation.TargetFinder = (*FindOpenAgreementUseCase)(nil)

func NewFindOpenAgreementUseCase(agreements port.AgreementRepository) *FindOpenAgreementUseCase {
	return &FindOpenAgreementUseCase{Agreements: agreements}
}

func (uc *FindOpenAgreementUseCase) FindOpenAgreement(ctx context.Context, tenantID, contactID string, flow conversation.FlowName) (*conversation.TargetDraft, error) {
	all, err := uc.Agreements.ListByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var best *agreement.Agreement
	for i := range all {
		a := &all[i]
		if !eligible(*a, flow) {
			continue
		}
		if best == nil || agreement.CivilDate(a.EffectiveDueDate()).Before(agreement.CivilDate(best.EffectiveDueDate())) {
			best = a
		}
	}
	if best == nil {
		return nil, nil
	}
	due := conversation.DateOf(agreement.CivilDate(best.EffectiveDueDate()), time.UTC)
	return &conversation.TargetDraft{
		AgreementID: best.ID,
		Title:       best.Title,
		Kind:        best.Kind,
		DueDate:     &due,
	}, nil
}

func eligible(a agreement.Agreement, flow conversation.FlowName) bool {
	switch flow {
	case conversation.FlowReschedule:
		return a.Status.Open() || a.Status == agreement.StatusPendingConfirmation
	case conversation.FlowConfirmReturn:
		return a.Kind == agreement.KindLoan && a.Status.Open()
	case conversation.FlowConfirmPayment:
		return a.Status.Open()
	}
	return false
}
