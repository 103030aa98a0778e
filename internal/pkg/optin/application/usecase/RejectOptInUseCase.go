package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	agreementport "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
)

// RejectOptInUseCase records the refusal, cancels every agreement that was
// waiting on this consent and tells the tenant. The refusal only answers
// this request: the next gated step asks again.
type RejectOptInUseCase struct {
	Contacts   contactport.ContactRepository
	Agreements agreementport.AgreementRepository
	Notify     *notificationusecase.NotifyTenantUseCase
	Now        func() time.Time
}

func NewRejectOptInUseCase(contacts contactport.ContactRepository, agreements agreementport.AgreementRepository, notify *notificationusecase.NotifyTenantUseCase) *RejectOptInUseCase {
	return &RejectOptInUseCase{Contacts: contacts, Agreements: agreements, Notify: notify, Now: time.Now}
}

func (uc *RejectOptInUseCase) Execute(ctx context.Context, in ConsentInput) (*ConsentResult, error) {
	now := uc.Now()
	c, err := setStatus(ctx, uc.Contacts, in, contact.OptInRejected, now)
	if err != nil {
		return nil, err
	}

	waiting, err := awaitingConsent(ctx, uc.Agreements, in)
	if err != nil {
		return nil, err
	}
	for _, a := range waiting {
		if err := a.Cancel("opt_in_rejected", now); err != nil {
			return nil, err
		}
		if err := uc.Agreements.Update(ctx, a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	if uc.Notify != nil {
		_, err := uc.Notify.Execute(ctx, notificationusecase.NotifyTenantInput{
			TenantID: in.TenantID,
			Kind:     notification.KindOptInRejected,
			Title:    fmt.Sprintf("%s no aceptó recibir recordatorios", c.Name),
			Body:     fmt.Sprintf("Se cancelaron %d acuerdo(s) pendientes.", len(waiting)),
		})
		if err != nil {
			// best effort: the cancellation is already committed
			logger.Warn(ctx, "notify opt-in rejection", "error", err)
		}
	}
	return &ConsentResult{Contact: c, Affected: len(waiting)}, nil
}
