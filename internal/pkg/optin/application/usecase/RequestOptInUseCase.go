package usecase

import (
	"context"
	"fmt"

	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	outboundusecase "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/usecase"
)

type RequestOptInInput struct {
	TenantID  string
	ContactID string
}

// RequestOptInUseCase asks a counterparty for consent: a WhatsApp template
// with accept/reject buttons, or a plain message on Telegram. It reports
// whether a request went out; unreachable contacts are not an error.
type RequestOptInUseCase struct {
	Contacts contactport.ContactRepository
	Dispatch *outboundusecase.DispatchMessageUseCase
	Template string
	Language string
}

func NewRequestOptInUseCase(contacts contactport.ContactRepository, dispatch *outboundusecase.DispatchMessageUseCase, template, language string) *RequestOptInUseCase {
	return &RequestOptInUseCase{Contacts: contacts, Dispatch: dispatch, Template: template, Language: language}
}

func (uc *RequestOptInUseCase) Execute(ctx context.Context, in RequestOptInInput) (bool, error) {
	c, err := uc.Contacts.Get(ctx, in.TenantID, in.ContactID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !c.Reachable() {
		return false, nil
	}
	tenant, err := uc.Contacts.GetTenant(ctx, in.TenantID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if c.PhoneE164 != "" {
		err = uc.Dispatch.SendTemplate(ctx, outbound.ChannelWhatsApp, c.PhoneE164, uc.Template, uc.Language, c.Name, tenant.Name)
	} else {
		err = uc.Dispatch.SendText(ctx, outbound.ChannelTelegram, c.TelegramID, fmt.Sprintf(
			"Hola %s, %s quiere enviarte recordatorios de préstamos por este medio. Responde *aceptar* o *rechazar*.",
			c.Name, tenant.Name))
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
