package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	repository "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

// Address kinds a channel identifies senders by.
const (
	AddressPhone    = "phone"
	AddressTelegram = "telegram"
)

type ResolveContactInput struct {
	TenantID    string
	AddressKind string
	Address     string
	DisplayName string
}

// ResolveContactUseCase maps an inbound sender to the tenant's directory
// entry, creating it on first contact.
type ResolveContactUseCase struct {
	Repo repository.ContactRepository
	Now  func() time.Time
}

func NewResolveContactUseCase(repo repository.ContactRepository) *ResolveContactUseCase {
	return &ResolveContactUseCase{Repo: repo, Now: time.Now}
}

func (uc *ResolveContactUseCase) Execute(ctx context.Context, in ResolveContactInput) (*contact.Contact, error) {
	if in.TenantID == "" || strings.TrimSpace(in.Address) == "" {
		return nil, fmt.Errorf("tenant and sender address are required")
	}

	var (
		found *contact.Contact
		err   error
		phone string
		tgID  string
	)
	switch in.AddressKind {
	case AddressPhone:
		if phone, err = contact.NormalizePhone(in.Address); err != nil {
			return nil, err
		}
		found, err = uc.Repo.FindByPhone(ctx, in.TenantID, phone)
	case AddressTelegram:
		tgID = strings.TrimSpace(in.Address)
		found, err = uc.Repo.FindByTelegramID(ctx, in.TenantID, tgID)
	default:
		return nil, fmt.Errorf("unknown address kind %q", in.AddressKind)
	}
	switch {
	case err == nil:
		return found, nil
	case !errors.Is(err, contact.ErrContactNotFound):
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	name := strings.TrimSpace(in.DisplayName)
	if len([]rune(name)) < 2 {
		name = strings.TrimSpace(in.Address)
	}
	c, err := contact.NewContact(in.TenantID, name, phone, tgID, uc.Now())
	if err != nil {
		return nil, err
	}
	id, err := uc.Repo.Create(ctx, *c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	// re-read so derived fields (owner tenant) are populated
	created, err := uc.Repo.Get(ctx, in.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return created, nil
}
