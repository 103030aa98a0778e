package domain

import "context"

// Completion is handed to the finalizer when a flow reaches complete.
// StateID identifies the dialogue so finalizing twice is harmless.
type Completion struct {
	StateID   string
	TenantID  string
	ContactID string
	Flow      FlowName
	Context   Context
	Turn      Turn
}

// Outcome is what the finalizer recorded.
type Outcome struct {
	Reply       string
	AgreementID string
}

// Finalizer turns a completed context into agreement changes.
type Finalizer interface {
	Finalize(ctx context.Context, c Completion) (Outcome, error)
}
