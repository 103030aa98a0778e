package port

import (
	"context"

	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
)

// Sender delivers a message to a provider, or hands it to something that
// will. Errors are retried by the caller's queue.
type Sender interface {
	Send(ctx context.Context, m outbound.Message) error
}
