package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/adapter"
	"github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/port"
)

// RegisterSendOutboundTask binds outbound:send to provider, the sender that
// actually talks to WhatsApp or Telegram.
func RegisterSendOutboundTask(srv qport.Server, provider port.Sender) {
	srv.Register(adapter.SendTaskType, func(ctx context.Context, t qport.Task) error {
		var m outbound.Message
		if err := json.Unmarshal(t.Payload, &m); err != nil {
			// malformed payload: do not retry indefinitely
			return fmt.Errorf("decode outbound message: %w", err)
		}
		if err := m.Validate(); err != nil {
			return err
		}

		// give the provider a reasonable time budget per delivery
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return provider.Send(ctx, m)
	})
}
