package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

type LifecycleTickResult struct {
	Checked int            `json:"checked"`
	Changed map[string]int `json:"changed"`
}

// LifecycleTickUseCase moves open agreements to due_soon or overdue,
// comparing due dates with each tenant's local today. Deciding when to tick
// belongs to the caller.
type LifecycleTickUseCase struct {
	Agreements  port.AgreementRepository
	Contacts    contactport.ContactRepository
	DueSoonDays int
	Location    *time.Location
	Metrics     *metrics.Metrics
}

func NewLifecycleTickUseCase(agreements port.AgreementRepository, contacts contactport.ContactRepository, dueSoonDays int, loc *time.Location, m *metrics.Metrics) *LifecycleTickUseCase {
	return &LifecycleTickUseCase{Agreements: agreements, Contacts: contacts, DueSoonDays: dueSoonDays, Location: loc, Metrics: m}
}

func (uc *LifecycleTickUseCase) Execute(ctx context.Context, now time.Time) (*LifecycleTickResult, error) {
	open, err := uc.Agreements.ListByStatus(ctx, agreement.StatusActive, agreement.StatusDueSoon, agreement.StatusOverdue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	res := &LifecycleTickResult{Changed: map[string]int{}}
	locations := map[string]*time.Location{}
	for _, a := range open {
		res.Checked++
		today := now.In(uc.locationOf(ctx, locations, a.TenantID))
		changed, err := a.ApplyTime(today, uc.DueSoonDays, now)
		if err != nil {
			return res, err
		}
		if !changed {
			continue
		}
		if err := uc.Agreements.Update(ctx, a); err != nil {
			return res, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		res.Changed[string(a.Status)]++
	}

	for status, n := range res.Changed {
		uc.Metrics.StatusChanged(status, n)
	}
	logger.Info(ctx, "lifecycle tick", "checked", res.Checked, "changed", res.Changed)
	return res, nil
}

func (uc *LifecycleTickUseCase) locationOf(ctx context.Context, cache map[string]*time.Location, tenantID string) *time.Location {
	if loc, ok := cache[tenantID]; ok {
		return loc
	}
	loc := uc.Location
	if t, err := uc.Contacts.GetTenant(ctx, tenantID); err == nil {
		loc = t.Location(uc.Location)
	} else {
		logger.Warn(ctx, "lifecycle tick: tenant lookup", "error", err, "tenant", tenantID)
	}
	if loc == nil {
		loc = time.UTC
	}
	cache[tenantID] = loc
	return loc
}
