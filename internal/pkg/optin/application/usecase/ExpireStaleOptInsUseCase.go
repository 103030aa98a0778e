package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	agreementport "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
)

// ExpireStaleOptInsInput narrows the scan to one agreement when AgreementID
// is set (the delayed task); otherwise every pending agreement is checked.
type ExpireStaleOptInsInput struct {
	TenantID    string
	AgreementID string
}

// ExpireStaleOptInsUseCase cancels agreements whose consent request went
// unanswered for longer than ExpireAfter.
type ExpireStaleOptInsUseCase struct {
	Agreements  agreementport.AgreementRepository
	Notify      *notificationusecase.NotifyTenantUseCase
	ExpireAfter time.Duration
	Now         func() time.Time
}

func NewExpireStaleOptInsUseCase(agreements agreementport.AgreementRepository, notify *notificationusecase.NotifyTenantUseCase, expireAfter time.Duration) *ExpireStaleOptInsUseCase {
	return &ExpireStaleOptInsUseCase{Agreements: agreements, Notify: notify, ExpireAfter: expireAfter, Now: time.Now}
}

func (uc *ExpireStaleOptInsUseCase) Execute(ctx context.Context, in ExpireStaleOptInsInput) (int, error) {
	now := uc.Now()
	candidates, err := uc.candidates(ctx, in)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, a := range candidates {
		if !a.AwaitingConsent() || now.Sub(a.CreatedAt) < uc.ExpireAfter {
			continue
		}
		if err := a.Cancel("opt_in_expired", now); err != nil {
			return expired, err
		}
		if err := uc.Agreements.Update(ctx, a); err != nil {
			return expired, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		expired++

		if uc.Notify != nil {
			_, err := uc.Notify.Execute(ctx, notificationusecase.NotifyTenantInput{
				TenantID:    a.TenantID,
				Kind:        notification.KindOptInExpired,
				Title:       "Solicitud sin respuesta: " + a.Title,
				Body:        "Tu contacto no respondió a tiempo, así que el acuerdo se canceló.",
				AgreementID: a.ID,
			})
			if err != nil {
				logger.Warn(ctx, "notify opt-in expiry", "error", err, "agreement_id", a.ID)
			}
		}
	}
	return expired, nil
}

func (uc *ExpireStaleOptInsUseCase) candidates(ctx context.Context, in ExpireStaleOptInsInput) ([]agreement.Agreement, error) {
	if in.AgreementID != "" {
		a, err := uc.Agreements.Get(ctx, in.TenantID, in.AgreementID)
		if errors.Is(err, agreement.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return []agreement.Agreement{*a}, nil
	}
	list, err := uc.Agreements.ListByStatus(ctx, agreement.StatusPendingConfirmation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return list, nil
}
