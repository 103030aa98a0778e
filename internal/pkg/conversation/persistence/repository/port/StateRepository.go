package port

import (
	"context"
	"time"

	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
)

// StateRepository persists the single active dialogue per (tenant, contact).
// Load returns nil and no error when there is no state or it expired before
// now. Save replaces any previous state for the same key in one write.
type StateRepository interface {
	Load(ctx context.Context, key conversation.Key, now time.Time) (*conversation.State, error)
	Save(ctx context.Context, state conversation.State) error
	Delete(ctx context.Context, key conversation.Key) error
}

// Sweeper removes expired rows. Correctness never depends on it.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
