package domain

import (
	"time"

	"github.com/google/uuid"
)

// Key identifies the single active dialogue of a contact within a tenant.
type Key struct {
	TenantID  string
	ContactID string
}

// State is the persisted progress of a dialogue.
type State struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ContactID string    `json:"contact_id"`
	Flow      FlowName  `json:"flow"`
	Step      StepName  `json:"step"`
	Context   Context   `json:"context"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState starts flow at init with an empty context.
func NewState(key Key, flow FlowName, now time.Time, ttl time.Duration) State {
	return State{
		ID:        uuid.NewString(),
		TenantID:  key.TenantID,
		ContactID: key.ContactID,
		Flow:      flow,
		Step:      StepInit,
		Context:   NewContext(flow),
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}
}

func (s State) Key() Key { return Key{TenantID: s.TenantID, ContactID: s.ContactID} }

// Expired states are absent to every reader.
func (s State) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Advance returns the state moved to step with c, expiry slid to now+ttl.
func (s State) Advance(step StepName, c Context, now time.Time, ttl time.Duration) State {
	s.Step = step
	s.Context = c
	s.ExpiresAt = now.Add(ttl)
	s.UpdatedAt = now
	return s
}
