package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	agreementport "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
)

type ConsentInput struct {
	TenantID  string
	ContactID string
}

// ConsentResult counts the agreements the decision touched.
type ConsentResult struct {
	Contact  *contact.Contact
	Affected int
}

// AcceptOptInUseCase records consent and unblocks every agreement of the
// contact that was waiting on it.
type AcceptOptInUseCase struct {
	Contacts   contactport.ContactRepository
	Agreements agreementport.AgreementRepository
	Notify     *notificationusecase.NotifyTenantUseCase
	Now        func() time.Time
}

func NewAcceptOptInUseCase(contacts contactport.ContactRepository, agreements agreementport.AgreementRepository, notify *notificationusecase.NotifyTenantUseCase) *AcceptOptInUseCase {
	return &AcceptOptInUseCase{Contacts: contacts, Agreements: agreements, Notify: notify, Now: time.Now}
}

func (uc *AcceptOptInUseCase) Execute(ctx context.Context, in ConsentInput) (*ConsentResult, error) {
	now := uc.Now()
	c, err := setStatus(ctx, uc.Contacts, in, contact.OptInAccepted, now)
	if err != nil {
		return nil, err
	}

	waiting, err := awaitingConsent(ctx, uc.Agreements, in)
	if err != nil {
		return nil, err
	}
	for _, a := range waiting {
		if err := a.Transition(agreement.StatusActive, now); err != nil {
			return nil, err
		}
		if err := uc.Agreements.Update(ctx, a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	if len(waiting) > 0 && uc.Notify != nil {
		_, err := uc.Notify.Execute(ctx, notificationusecase.NotifyTenantInput{
			TenantID: in.TenantID,
			Kind:     notification.KindAgreementConfirmed,
			Title:    fmt.Sprintf("%s aceptó recibir recordatorios", c.Name),
			Body:     fmt.Sprintf("%d acuerdo(s) quedaron activos.", len(waiting)),
		})
		if err != nil {
			logger.Warn(ctx, "notify opt-in acceptance", "error", err)
		}
	}
	return &ConsentResult{Contact: c, Affected: len(waiting)}, nil
}

// Awaiting reports whether the contact borrows anything still blocked on
// its consent.
func (uc *AcceptOptInUseCase) Awaiting(ctx context.Context, in ConsentInput) (bool, error) {
	waiting, err := awaitingConsent(ctx, uc.Agreements, in)
	if err != nil {
		return false, err
	}
	return len(waiting) > 0, nil
}

func setStatus(ctx context.Context, contacts contactport.ContactRepository, in ConsentInput, status contact.OptInStatus, now time.Time) (*contact.Contact, error) {
	if in.TenantID == "" || in.ContactID == "" {
		return nil, fmt.Errorf("tenant and contact are required")
	}
	if err := contacts.SetOptInStatus(ctx, in.TenantID, in.ContactID, status, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	c, err := contacts.Get(ctx, in.TenantID, in.ContactID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return c, nil
}

// awaitingConsent lists the contact's borrowed agreements blocked on opt-in.
func awaitingConsent(ctx context.Context, repo agreementport.AgreementRepository, in ConsentInput) ([]agreement.Agreement, error) {
	all, err := repo.ListByContact(ctx, in.TenantID, in.ContactID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	var out []agreement.Agreement
	for _, a := range all {
		if a.BorrowerContactID == in.ContactID && a.AwaitingConsent() {
			out = append(out, a)
		}
	}
	return out, nil
}
