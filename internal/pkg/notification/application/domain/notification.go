package domain

import (
	"errors"
	"time"
)

// Kind classifies what a tenant is being told about.
type Kind string

const (
	KindLoanReceived       Kind = "loan_received"
	KindOptInRejected      Kind = "opt_in_rejected"
	KindOptInExpired       Kind = "opt_in_expired"
	KindAgreementConfirmed Kind = "agreement_confirmed"
	KindAgreementRejected  Kind = "agreement_rejected"
)

var ErrInvalidNotification = errors.New("notification requires tenant, kind and title")

// Notification is an entry of a tenant's inbox. Cross-tenant loans arrive as
// a mirrored notification in the borrower's own tenant (SourceTenantID is the
// lender's tenant).
type Notification struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	Kind           Kind       `json:"kind"`
	Title          string     `json:"title"`
	Body           string     `json:"body,omitempty"`
	AgreementID    string     `json:"agreement_id,omitempty"`
	SourceTenantID string     `json:"source_tenant_id,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func New(tenantID string, kind Kind, title, body string, now time.Time) (*Notification, error) {
	if tenantID == "" || kind == "" || title == "" {
		return nil, ErrInvalidNotification
	}
	return &Notification{TenantID: tenantID, Kind: kind, Title: title, Body: body, CreatedAt: now}, nil
}

func (n Notification) Read() bool { return n.ReadAt != nil }
