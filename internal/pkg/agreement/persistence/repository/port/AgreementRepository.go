package port

import (
	"context"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
)

// AgreementRepository is the agreement store. Lookups that find nothing
// return agreement.ErrNotFound; Create returns agreement.ErrDuplicateFlowRef
// when the tenant already has an agreement for the same flow_ref.
type AgreementRepository interface {
	Create(ctx context.Context, a agreement.Agreement) (string, error)
	Get(ctx context.Context, tenantID, id string) (*agreement.Agreement, error)
	GetByFlowRef(ctx context.Context, tenantID, flowRef string) (*agreement.Agreement, error)
	Update(ctx context.Context, a agreement.Agreement) error

	// ListByContact returns agreements where the contact is lender or
	// borrower, oldest first.
	ListByContact(ctx context.Context, tenantID, contactID string) ([]agreement.Agreement, error)
	ListByTenant(ctx context.Context, tenantID string) ([]agreement.Agreement, error)
	// ListByStatus spans all tenants; it feeds the lifecycle and expiry jobs.
	ListByStatus(ctx context.Context, statuses ...agreement.Status) ([]agreement.Agreement, error)
}
