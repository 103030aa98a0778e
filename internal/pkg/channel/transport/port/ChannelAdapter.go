package port

import (
	"context"
	"net/http"

	channel "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/domain"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
)

// Envelope is a raw webhook delivery. TenantID is set when the route
// identifies the tenant (Telegram); otherwise the adapter derives it.
type Envelope struct {
	TenantID string
	Header   http.Header
	Body     []byte
}

// ChannelAdapter hides a messaging provider behind the engine.
type ChannelAdapter interface {
	Channel() outbound.Channel
	// Verify authenticates the delivery; it returns
	// channel.ErrInvalidSignature on mismatch.
	Verify(ctx context.Context, env Envelope) error
	// ParseInbound extracts user messages, skipping statuses and other
	// provider events.
	ParseInbound(ctx context.Context, env Envelope) ([]channel.Inbound, error)
	SendReply(ctx context.Context, to, text string) error
}
