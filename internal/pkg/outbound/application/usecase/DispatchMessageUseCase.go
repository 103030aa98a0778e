package usecase

import (
	"context"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/port"
)

// DispatchMessageUseCase is the outbound collaborator used by the rest of
// the service. Failures are logged and counted, then returned so callers
// can decide; none of the flow code rolls back on them.
type DispatchMessageUseCase struct {
	Sender  port.Sender
	Metrics *metrics.Metrics
}

func NewDispatchMessageUseCase(sender port.Sender, m *metrics.Metrics) *DispatchMessageUseCase {
	return &DispatchMessageUseCase{Sender: sender, Metrics: m}
}

func (uc *DispatchMessageUseCase) Execute(ctx context.Context, m outbound.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := uc.Sender.Send(ctx, m); err != nil {
		uc.Metrics.OutboundFailed(string(m.Channel), string(m.Kind))
		logger.Warn(ctx, "outbound dispatch failed", "channel", m.Channel, "kind", m.Kind, "error", err)
		return err
	}
	return nil
}

func (uc *DispatchMessageUseCase) SendText(ctx context.Context, ch outbound.Channel, to, body string) error {
	return uc.Execute(ctx, outbound.Message{Channel: ch, To: to, Kind: outbound.KindText, Body: body})
}

func (uc *DispatchMessageUseCase) SendTemplate(ctx context.Context, ch outbound.Channel, to, template, language string, params ...string) error {
	return uc.Execute(ctx, outbound.Message{
		Channel:  ch,
		To:       to,
		Kind:     outbound.KindTemplate,
		Template: template,
		Language: language,
		Params:   params,
	})
}

func (uc *DispatchMessageUseCase) SendImage(ctx context.Context, ch outbound.Channel, to, url, caption string) error {
	return uc.Execute(ctx, outbound.Message{Channel: ch, To: to, Kind: outbound.KindImage, ImageURL: url, Caption: caption})
}
