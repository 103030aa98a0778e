package port

import (
	"context"
	"time"

	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
)

// ContactRepository is the identity directory. Lookups that find nothing
// return contact.ErrTenantNotFound or contact.ErrContactNotFound.
type ContactRepository interface {
	GetTenant(ctx context.Context, tenantID string) (*contact.Tenant, error)
	FindTenantByWhatsAppNumber(ctx context.Context, phoneNumberID string) (*contact.Tenant, error)
	FindTenantByOwnerPhone(ctx context.Context, phoneE164 string) (*contact.Tenant, error)

	Get(ctx context.Context, tenantID, contactID string) (*contact.Contact, error)
	FindByPhone(ctx context.Context, tenantID, phoneE164 string) (*contact.Contact, error)
	FindByTelegramID(ctx context.Context, tenantID, telegramID string) (*contact.Contact, error)
	// FindByName returns case-insensitive prefix matches, exact matches first.
	FindByName(ctx context.Context, tenantID, name string) ([]contact.Contact, error)

	Create(ctx context.Context, c contact.Contact) (string, error)
	SetOptInStatus(ctx context.Context, tenantID, contactID string, status contact.OptInStatus, at time.Time) error
}
