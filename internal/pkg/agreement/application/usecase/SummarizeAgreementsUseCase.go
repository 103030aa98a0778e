package usecase

import (
	"context"
	"fmt"
	"strings"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

type SummarizeAgreementsInput struct {
	TenantID  string
	ContactID string
}

// SummarizeAgreementsUseCase renders the chat "estado" answer: the
// contact's open agreements on both sides, grouped.
type SummarizeAgreementsUseCase struct {
	Agreements port.AgreementRepository
	Contacts   contactport.ContactRepository
}

func NewSummarizeAgreementsUseCase(agreements port.AgreementRepository, contacts contactport.ContactRepository) *SummarizeAgreementsUseCase {
	return &SummarizeAgreementsUseCase{Agreements: agreements, Contacts: contacts}
}

var statusLabels = map[agreement.Status]string{
	agreement.StatusPendingConfirmation: "pendiente",
	agreement.StatusActive:              "al día",
	agreement.StatusDueSoon:             "vence pronto",
	agreement.StatusOverdue:             "vencido",
}

func (uc *SummarizeAgreementsUseCase) Execute(ctx context.Context, in SummarizeAgreementsInput) (string, error) {
	all, err := uc.Agreements.ListByContact(ctx, in.TenantID, in.ContactID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	var lent, borrowed []agreement.Agreement
	for _, a := range all {
		if a.Status.Terminal() {
			continue
		}
		if a.LenderContactID == in.ContactID {
			lent = append(lent, a)
		} else {
			borrowed = append(borrowed, a)
		}
	}
	if len(lent) == 0 && len(borrowed) == 0 {
		return "No tienes préstamos activos.", nil
	}

	names := map[string]string{}
	var b strings.Builder
	b.WriteString("📋 Tus préstamos")
	for _, section := range []struct {
		title string
		items []agreement.Agreement
		role  agreement.Role
	}{
		{"Prestaste", lent, agreement.RoleLent},
		{"Te prestaron", borrowed, agreement.RoleBorrowed},
	} {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n*%s*", section.title)
		for _, e := range agreement.GroupAgreements(section.items, section.role) {
			b.WriteString("\n• ")
			b.WriteString(uc.line(ctx, in.TenantID, names, e, section.role))
		}
	}
	return b.String(), nil
}

func (uc *SummarizeAgreementsUseCase) line(ctx context.Context, tenantID string, names map[string]string, e agreement.Entry, role agreement.Role) string {
	due := agreement.CivilDate(e.DueDate()).Format("02/01/2006")
	if e.IsGroup() {
		g := e.Group
		return fmt.Sprintf("%s: %s en %d préstamos, vence %s (%s)",
			uc.name(ctx, tenantID, names, g.CounterpartyID), agreement.FormatMoney(g.Total, g.Currency), g.Count, due, statusLabels[g.Status])
	}
	a := e.Agreement
	return fmt.Sprintf("%s: %s, vence %s (%s)",
		uc.name(ctx, tenantID, names, role.Counterparty(*a)), a.Title, due, statusLabels[a.Status])
}

func (uc *SummarizeAgreementsUseCase) name(ctx context.Context, tenantID string, cache map[string]string, contactID string) string {
	if n, ok := cache[contactID]; ok {
		return n
	}
	n := "Contacto"
	if c, err := uc.Contacts.Get(ctx, tenantID, contactID); err == nil {
		n = c.Name
	}
	cache[contactID] = n
	return n
}
