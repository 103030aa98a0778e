package adapter

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

// MemoryContactRepository keeps the directory in process.
type MemoryContactRepository struct {
	mu       sync.RWMutex
	tenants  map[string]contact.Tenant
	contacts map[string]contact.Contact
}

func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{
		tenants:  make(map[string]contact.Tenant),
		contacts: make(map[string]contact.Contact),
	}
}

var _ port.ContactRepository = (*MemoryContactRepository)(nil)

// PutTenant inserts or replaces a tenant, assigning an id when empty.
func (m *MemoryContactRepository) PutTenant(t contact.Tenant) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.tenants[t.ID] = t
	return t.ID
}

func (m *MemoryContactRepository) GetTenant(_ context.Context, tenantID string) (*contact.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenants[tenantID]
	if !ok {
		return nil, contact.ErrTenantNotFound
	}
	return &t, nil
}

func (m *MemoryContactRepository) findTenant(match func(contact.Tenant) bool) (*contact.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tenants {
		if match(t) {
			t := t
			return &t, nil
		}
	}
	return nil, contact.ErrTenantNotFound
}

func (m *MemoryContactRepository) FindTenantByWhatsAppNumber(_ context.Context, phoneNumberID string) (*contact.Tenant, error) {
	return m.findTenant(func(t contact.Tenant) bool {
		return phoneNumberID != "" && t.WhatsAppPhoneNumberID == phoneNumberID
	})
}

func (m *MemoryContactRepository) FindTenantByOwnerPhone(_ context.Context, phoneE164 string) (*contact.Tenant, error) {
	return m.findTenant(func(t contact.Tenant) bool {
		return phoneE164 != "" && t.OwnerPhone == phoneE164
	})
}

// withOwnerLocked mirrors the owner join of the Postgres adapter.
func (m *MemoryContactRepository) withOwnerLocked(c contact.Contact) contact.Contact {
	c.OwnerTenantID = ""
	if c.PhoneE164 == "" {
		return c
	}
	for _, t := range m.tenants {
		if t.OwnerPhone == c.PhoneE164 && t.ID != c.TenantID {
			c.OwnerTenantID = t.ID
			break
		}
	}
	return c
}

func (m *MemoryContactRepository) findContact(tenantID string, match func(contact.Contact) bool) (*contact.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contacts {
		if c.TenantID == tenantID && match(c) {
			c = m.withOwnerLocked(c)
			return &c, nil
		}
	}
	return nil, contact.ErrContactNotFound
}

func (m *MemoryContactRepository) Get(_ context.Context, tenantID, contactID string) (*contact.Contact, error) {
	return m.findContact(tenantID, func(c contact.Contact) bool { return c.ID == contactID })
}

func (m *MemoryContactRepository) FindByPhone(_ context.Context, tenantID, phoneE164 string) (*contact.Contact, error) {
	return m.findContact(tenantID, func(c contact.Contact) bool { return phoneE164 != "" && c.PhoneE164 == phoneE164 })
}

func (m *MemoryContactRepository) FindByTelegramID(_ context.Context, tenantID, telegramID string) (*contact.Contact, error) {
	return m.findContact(tenantID, func(c contact.Contact) bool { return telegramID != "" && c.TelegramID == telegramID })
}

func (m *MemoryContactRepository) FindByName(_ context.Context, tenantID, name string) ([]contact.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(name))
	var out []contact.Contact
	for _, c := range m.contacts {
		if c.TenantID == tenantID && strings.HasPrefix(strings.ToLower(c.Name), needle) {
			out = append(out, m.withOwnerLocked(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := strings.EqualFold(out[i].Name, needle), strings.EqualFold(out[j].Name, needle)
		if ei != ej {
			return ei
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out, nil
}

func (m *MemoryContactRepository) Create(_ context.Context, c contact.Contact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.OptInStatus == "" {
		c.OptInStatus = contact.OptInPending
	}
	m.contacts[c.ID] = c
	return c.ID, nil
}

func (m *MemoryContactRepository) SetOptInStatus(_ context.Context, tenantID, contactID string, status contact.OptInStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[contactID]
	if !ok || c.TenantID != tenantID {
		return contact.ErrContactNotFound
	}
	c.OptInStatus = status
	c.OptInAt = &at
	m.contacts[contactID] = c
	return nil
}
