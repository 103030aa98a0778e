package adapter

import (
	"context"
	"sync"

	"github.com/google/uuid"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
)

// MemoryAgreementRepository keeps insertion order, which stands in for
// created_at ordering.
type MemoryAgreementRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]agreement.Agreement
}

func NewMemoryAgreementRepository() *MemoryAgreementRepository {
	return &MemoryAgreementRepository{items: make(map[string]agreement.Agreement)}
}

var _ port.AgreementRepository = (*MemoryAgreementRepository)(nil)

func copyAgreement(a agreement.Agreement) agreement.Agreement {
	meta := make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		meta[k] = v
	}
	a.Metadata = meta
	if a.NextDueDate != nil {
		d := *a.NextDueDate
		a.NextDueDate = &d
	}
	if a.CompletedAt != nil {
		d := *a.CompletedAt
		a.CompletedAt = &d
	}
	return a
}

func (r *MemoryAgreementRepository) Create(_ context.Context, a agreement.Agreement) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.FlowRef != "" {
		for _, existing := range r.items {
			if existing.TenantID == a.TenantID && existing.FlowRef == a.FlowRef {
				return "", agreement.ErrDuplicateFlowRef
			}
		}
	}
	a.ID = uuid.NewString()
	r.items[a.ID] = copyAgreement(a)
	r.order = append(r.order, a.ID)
	return a.ID, nil
}

func (r *MemoryAgreementRepository) Get(_ context.Context, tenantID, id string) (*agreement.Agreement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok || a.TenantID != tenantID {
		return nil, agreement.ErrNotFound
	}
	cp := copyAgreement(a)
	return &cp, nil
}

func (r *MemoryAgreementRepository) GetByFlowRef(_ context.Context, tenantID, flowRef string) (*agreement.Agreement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		a := r.items[id]
		if a.TenantID == tenantID && a.FlowRef == flowRef {
			cp := copyAgreement(a)
			return &cp, nil
		}
	}
	return nil, agreement.ErrNotFound
}

func (r *MemoryAgreementRepository) Update(_ context.Context, a agreement.Agreement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[a.ID]
	if !ok || existing.TenantID != a.TenantID {
		return agreement.ErrNotFound
	}
	r.items[a.ID] = copyAgreement(a)
	return nil
}

func (r *MemoryAgreementRepository) filter(keep func(agreement.Agreement) bool) []agreement.Agreement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []agreement.Agreement
	for _, id := range r.order {
		if a := r.items[id]; keep(a) {
			out = append(out, copyAgreement(a))
		}
	}
	return out
}

func (r *MemoryAgreementRepository) ListByContact(_ context.Context, tenantID, contactID string) ([]agreement.Agreement, error) {
	return r.filter(func(a agreement.Agreement) bool {
		return a.TenantID == tenantID && (a.LenderContactID == contactID || a.BorrowerContactID == contactID)
	}), nil
}

func (r *MemoryAgreementRepository) ListByTenant(_ context.Context, tenantID string) ([]agreement.Agreement, error) {
	return r.filter(func(a agreement.Agreement) bool { return a.TenantID == tenantID }), nil
}

func (r *MemoryAgreementRepository) ListByStatus(_ context.Context, statuses ...agreement.Status) ([]agreement.Agreement, error) {
	return r.filter(func(a agreement.Agreement) bool {
		for _, s := range statuses {
			if a.Status == s {
				return true
			}
		}
		return false
	}), nil
}
