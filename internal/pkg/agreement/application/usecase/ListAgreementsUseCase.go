package usecase

import (
	"context"
	"fmt"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

type ListAgreementsInput struct {
	TenantID      string
	Role          agreement.Role
	IncludeClosed bool
}

// ListAgreementsUseCase returns the tenant owner's agreements on one side
// (lent or borrowed), grouped for display.
type ListAgreementsUseCase struct {
	Agreements port.AgreementRepository
	Contacts   contactport.ContactRepository
}

func NewListAgreementsUseCase(agreements port.AgreementRepository, contacts contactport.ContactRepository) *ListAgreementsUseCase {
	return &ListAgreementsUseCase{Agreements: agreements, Contacts: contacts}
}

func (uc *ListAgreementsUseCase) Execute(ctx context.Context, in ListAgreementsInput) ([]agreement.Entry, error) {
	if in.Role == "" {
		in.Role = agreement.RoleLent
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", in.Role)
	}
	tenant, err := uc.Contacts.GetTenant(ctx, in.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	all, err := uc.Agreements.ListByTenant(ctx, in.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var mine []agreement.Agreement
	for _, a := range all {
		if !in.IncludeClosed && a.Status.Terminal() {
			continue
		}
		if onSide(a, in.Role, tenant.OwnerContactID) {
			mine = append(mine, a)
		}
	}
	return agreement.GroupAgreements(mine, in.Role), nil
}

// onSide treats every agreement as lent when the owner has no contact row.
func onSide(a agreement.Agreement, role agreement.Role, ownerContactID string) bool {
	if ownerContactID == "" {
		return role == agreement.RoleLent
	}
	if role == agreement.RoleBorrowed {
		return a.BorrowerContactID == ownerContactID
	}
	return a.LenderContactID == ownerContactID
}
