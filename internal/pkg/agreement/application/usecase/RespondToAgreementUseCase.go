package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
)

type RespondToAgreementInput struct {
	TenantID  string
	ContactID string
	Accept    bool
}

// RespondToAgreementUseCase handles the borrower's confirm/reject buttons on
// their newest pending agreement. Confirming also counts as consent.
type RespondToAgreementUseCase struct {
	Agreements port.AgreementRepository
	Contacts   contactport.ContactRepository
	Notify     *notificationusecase.NotifyTenantUseCase
	Now        func() time.Time
}

func NewRespondToAgreementUseCase(agreements port.AgreementRepository, contacts contactport.ContactRepository, notify *notificationusecase.NotifyTenantUseCase) *RespondToAgreementUseCase {
	return &RespondToAgreementUseCase{Agreements: agreements, Contacts: contacts, Notify: notify, Now: time.Now}
}

// Execute returns nil when the contact has nothing pending.
func (uc *RespondToAgreementUseCase) Execute(ctx context.Context, in RespondToAgreementInput) (*agreement.Agreement, error) {
	all, err := uc.Agreements.ListByContact(ctx, in.TenantID, in.ContactID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	var target *agreement.Agreement
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].BorrowerContactID == in.ContactID && all[i].Status == agreement.StatusPendingConfirmation {
			target = &all[i]
			break
		}
	}
	if target == nil {
		return nil, nil
	}

	now := uc.Now()
	kind := notification.KindAgreementConfirmed
	verb := "confirmó"
	if in.Accept {
		if target.OptInRequired {
			if err := uc.Contacts.SetOptInStatus(ctx, in.TenantID, in.ContactID, contact.OptInAccepted, now); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
			}
		}
		err = target.Transition(agreement.StatusActive, now)
	} else {
		kind, verb = notification.KindAgreementRejected, "rechazó"
		err = target.Transition(agreement.StatusRejected, now)
	}
	if err != nil {
		return nil, err
	}
	if err := uc.Agreements.Update(ctx, *target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Notify != nil {
		name := "Tu contacto"
		if c, err := uc.Contacts.Get(ctx, in.TenantID, in.ContactID); err == nil {
			name = c.Name
		}
		_, err := uc.Notify.Execute(ctx, notificationusecase.NotifyTenantInput{
			TenantID:    in.TenantID,
			Kind:        kind,
			Title:       fmt.Sprintf("%s %s \"%s\"", name, verb, target.Title),
			AgreementID: target.ID,
		})
		if err != nil {
			logger.Warn(ctx, "notify agreement response", "error", err, "agreement_id", target.ID)
		}
	}
	return target, nil
}
