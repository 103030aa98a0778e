package usecase

import (
	"context"
	"fmt"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	outboundusecase "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/usecase"
)

type AnnounceAgreementInput struct {
	Agreement      agreement.Agreement
	ConsentPending bool
}

// Announcement records which path reached the counterparty.
type Announcement string

const (
	AnnouncedNone       Announcement = ""
	AnnouncedMirror     Announcement = "mirror"
	AnnouncedInvitation Announcement = "invitation"
)

// AnnounceAgreementUseCase tells the borrower about a new agreement. A
// borrower who owns a tenant gets a mirrored notification in that tenant;
// anyone else gets the invitation template, unless consent is still
// pending, since the consent request already went out. Every failure is
// logged and swallowed: the agreement stands either way.
type AnnounceAgreementUseCase struct {
	Contacts contactport.ContactRepository
	Notify   *notificationusecase.NotifyTenantUseCase
	Dispatch *outboundusecase.DispatchMessageUseCase
	Template string
	Language string
}

func NewAnnounceAgreementUseCase(contacts contactport.ContactRepository, notify *notificationusecase.NotifyTenantUseCase, dispatch *outboundusecase.DispatchMessageUseCase, template, language string) *AnnounceAgreementUseCase {
	return &AnnounceAgreementUseCase{Contacts: contacts, Notify: notify, Dispatch: dispatch, Template: template, Language: language}
}

func (uc *AnnounceAgreementUseCase) Execute(ctx context.Context, in AnnounceAgreementInput) Announcement {
	a := in.Agreement
	borrower, err := uc.Contacts.Get(ctx, a.TenantID, a.BorrowerContactID)
	if err != nil {
		logger.Warn(ctx, "announce agreement: load borrower", "error", err, "agreement_id", a.ID)
		return AnnouncedNone
	}
	tenant, err := uc.Contacts.GetTenant(ctx, a.TenantID)
	if err != nil {
		logger.Warn(ctx, "announce agreement: load tenant", "error", err, "agreement_id", a.ID)
		return AnnouncedNone
	}
	due := displayDue(a)

	if borrower.CrossTenant() && uc.Notify != nil {
		_, err := uc.Notify.Execute(ctx, notificationusecase.NotifyTenantInput{
			TenantID:       borrower.OwnerTenantID,
			Kind:           notification.KindLoanReceived,
			Title:          fmt.Sprintf("%s registró un acuerdo contigo", tenant.Name),
			Body:           fmt.Sprintf("%s, vence el %s.", a.Title, due),
			AgreementID:    a.ID,
			SourceTenantID: a.TenantID,
		})
		if err != nil {
			logger.Warn(ctx, "announce agreement: mirror notification", "error", err, "agreement_id", a.ID)
			return AnnouncedNone
		}
		return AnnouncedMirror
	}

	if in.ConsentPending || uc.Dispatch == nil || !borrower.Reachable() {
		return AnnouncedNone
	}
	if borrower.PhoneE164 != "" {
		err = uc.Dispatch.SendTemplate(ctx, outbound.ChannelWhatsApp, borrower.PhoneE164, uc.Template, uc.Language,
			borrower.Name, tenant.Name, a.Title, due)
	} else {
		err = uc.Dispatch.SendText(ctx, outbound.ChannelTelegram, borrower.TelegramID,
			fmt.Sprintf("Hola %s, %s registró: %s. Vence el %s.", borrower.Name, tenant.Name, a.Title, due))
	}
	if err != nil {
		return AnnouncedNone
	}
	return AnnouncedInvitation
}

func displayDue(a agreement.Agreement) string {
	return agreement.CivilDate(a.EffectiveDueDate()).Format("02/01/2006")
}
