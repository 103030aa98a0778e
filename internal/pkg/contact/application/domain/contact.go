package domain

import (
	"errors"
	"strings"
	"time"
)

// OptInStatus is a contact's consent to receive reminder messages.
type OptInStatus string

const (
	OptInPending  OptInStatus = "pending"
	OptInAccepted OptInStatus = "opted_in"
	OptInRejected OptInStatus = "opted_out"
)

func (s OptInStatus) Valid() bool {
	switch s {
	case OptInPending, OptInAccepted, OptInRejected:
		return true
	}
	return false
}

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrInvalidName     = errors.New("contact name must have at least 2 characters")
	ErrInvalidPhone    = errors.New("invalid phone number")
)

// Tenant is the account of a person tracking their own loans.
type Tenant struct {
	ID                    string
	Name                  string
	OwnerContactID        string
	OwnerPhone            string
	WhatsAppPhoneNumberID string
	TelegramSecret        string
	Timezone              string
	Currency              string
	CreatedAt             time.Time
}

// Location returns the tenant's civil calendar, falling back to fallback.
func (t Tenant) Location(fallback *time.Location) *time.Location {
	if t.Timezone != "" {
		if loc, err := time.LoadLocation(t.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

// Contact is an entry of a tenant's directory. OwnerTenantID is derived: it is
// set when the contact's phone belongs to the owner of another tenant.
type Contact struct {
	ID            string
	TenantID      string
	Name          string
	PhoneE164     string
	TelegramID    string
	OptInStatus   OptInStatus
	OptInAt       *time.Time
	OwnerTenantID string
	CreatedAt     time.Time
}

// NewContact validates and normalizes a directory entry.
func NewContact(tenantID, name, phone, telegramID string, now time.Time) (*Contact, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return nil, ErrInvalidName
	}
	c := &Contact{
		TenantID:    tenantID,
		Name:        name,
		TelegramID:  strings.TrimSpace(telegramID),
		OptInStatus: OptInPending,
		CreatedAt:   now,
	}
	if strings.TrimSpace(phone) != "" {
		p, err := NormalizePhone(phone)
		if err != nil {
			return nil, err
		}
		c.PhoneE164 = p
	}
	return c, nil
}

func (c Contact) OptedIn() bool { return c.OptInStatus == OptInAccepted }

// Reachable reports whether any channel address is known.
func (c Contact) Reachable() bool { return c.PhoneE164 != "" || c.TelegramID != "" }

// CrossTenant reports whether the contact owns a tenant other than the one
// whose directory it belongs to.
func (c Contact) CrossTenant() bool {
	return c.OwnerTenantID != "" && c.OwnerTenantID != c.TenantID
}
