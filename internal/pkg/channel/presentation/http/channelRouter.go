package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/usecase"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/presentation/controller"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/port"
)

// RegisterRoutes mounts the provider webhooks. They authenticate with
// provider signatures, not bearer tokens.
func RegisterRoutes(g *gin.RouterGroup, uc *usecase.HandleInboundUseCase, whatsapp, telegram port.ChannelAdapter, verifyToken string) {
	wa := middleware.WebhookScope(string(whatsapp.Channel()))

	// GET /webhooks/whatsapp -> hub.challenge echo
	g.GET("/whatsapp", wa, controller.NewWhatsAppVerifyController(verifyToken).Handle())

	// POST /webhooks/whatsapp -> X-Hub-Signature-256 signed deliveries
	g.POST("/whatsapp", wa, controller.NewWebhookController(whatsapp, uc).Handle())

	// POST /webhooks/telegram/:tenantId -> one bot per tenant
	g.POST("/telegram/:tenantId", middleware.WebhookScope(string(telegram.Channel())), controller.NewWebhookController(telegram, uc).Handle())
}
