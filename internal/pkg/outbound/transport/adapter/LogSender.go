package adapter

import (
	"context"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/port"
)

// LogSender stands in for the provider HTTP clients, which live outside
// this service. It records every call at info level.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

var _ port.Sender = (*LogSender)(nil)

func (s *LogSender) Send(ctx context.Context, m outbound.Message) error {
	logger.Info(ctx, "outbound message",
		"channel", m.Channel,
		"to", m.To,
		"kind", m.Kind,
		"template", m.Template,
		"body_len", len(m.Body),
	)
	return nil
}
