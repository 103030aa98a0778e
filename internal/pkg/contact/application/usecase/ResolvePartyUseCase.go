package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	repository "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
)

// ResolvePartyUseCase is the directory lookup behind the contact step of a
// dialogue: by phone first, then by name, else a new pending contact.
type ResolvePartyUseCase struct {
	Repo repository.ContactRepository
	Now  func() time.Time
}

func NewResolvePartyUseCase(repo repository.ContactRepository) *ResolvePartyUseCase {
	return &ResolvePartyUseCase{Repo: repo, Now: time.Now}
}

var _ conversation.Directory = (*ResolvePartyUseCase)(nil)

func (uc *ResolvePartyUseCase) ResolveParty(ctx context.Context, tenantID, name, phone string) (*conversation.Party, error) {
	name = strings.TrimSpace(name)

	if phone != "" {
		c, err := uc.Repo.FindByPhone(ctx, tenantID, phone)
		switch {
		case err == nil:
			return partyOf(*c, false), nil
		case !errors.Is(err, contact.ErrContactNotFound):
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	if name != "" {
		matches, err := uc.Repo.FindByName(ctx, tenantID, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		// a phone that matched nobody means a different person with the same name
		if len(matches) > 0 && (phone == "" || matches[0].PhoneE164 == "") {
			return partyOf(matches[0], false), nil
		}
	}

	if name == "" {
		name = phone
	}
	c, err := contact.NewContact(tenantID, name, phone, "", uc.Now())
	if err != nil {
		return nil, err
	}
	id, err := uc.Repo.Create(ctx, *c)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	c.ID = id
	return partyOf(*c, true), nil
}

func partyOf(c contact.Contact, created bool) *conversation.Party {
	return &conversation.Party{ContactID: c.ID, Name: c.Name, Phone: c.PhoneE164, Created: created}
}
