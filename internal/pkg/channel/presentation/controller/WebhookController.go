package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	channel "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/usecase"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/port"
)

const maxWebhookBody = 1 << 20

// WebhookController accepts provider deliveries for one channel. Messages
// that fail after authentication still answer 200 so the provider does not
// redeliver them; the user already got the failure reply.
type WebhookController struct {
	adapter port.ChannelAdapter
	uc      *usecase.HandleInboundUseCase
	timeout time.Duration
}

func NewWebhookController(adapter port.ChannelAdapter, uc *usecase.HandleInboundUseCase) *WebhookController {
	return &WebhookController{adapter: adapter, uc: uc, timeout: 10 * time.Second}
}

func (h *WebhookController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		env := port.Envelope{TenantID: c.Param("tenantId"), Header: c.Request.Header, Body: body}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		if err := h.adapter.Verify(ctx, env); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		messages, err := h.adapter.ParseInbound(ctx, env)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		processed := 0
		for _, in := range messages {
			if _, err := h.uc.Execute(ctx, h.adapter, in); err != nil {
				logger.Error(ctx, "webhook message", "error", err, "channel", string(in.Channel), "message_id", in.MessageID)
				continue
			}
			processed++
		}
		c.JSON(http.StatusOK, gin.H{"received": len(messages), "processed": processed})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, channel.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, channel.ErrUnknownTenant):
		return http.StatusNotFound
	case errors.Is(err, channel.ErrMalformedPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
