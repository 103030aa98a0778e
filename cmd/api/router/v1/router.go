package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/realtime"
	agreementusecase "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
	agreementport "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	agreementhttp "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/presentation/http"
	channelusecase "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/usecase"
	channelhttp "github.com/Customware-cl/payme-sub001/internal/pkg/channel/presentation/http"
	channelport "github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/port"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	notificationport "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
	notificationhttp "github.com/Customware-cl/payme-sub001/internal/pkg/notification/presentation/http"
)

// Deps is what the HTTP layer needs from the composition root.
type Deps struct {
	JWTSecret     string
	VerifyToken   string
	Metrics       *metrics.Metrics
	Realtime      *realtime.Router
	Contacts      contactport.ContactRepository
	Agreements    agreementport.AgreementRepository
	Notifications notificationport.NotificationRepository
	Inbound       *channelusecase.HandleInboundUseCase
	WhatsApp      channelport.ChannelAdapter
	Telegram      channelport.ChannelAdapter
	Tick          *agreementusecase.LifecycleTickUseCase
}

// RegisterRoutes mounts the webhooks, the tenant API under /api/v1 and the
// scheduler API under /internal/v1.
func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	channelhttp.RegisterRoutes(r.Group("/webhooks"), d.Inbound, d.WhatsApp, d.Telegram, d.VerifyToken)

	v1 := r.Group("/api/v1", middleware.Auth(d.JWTSecret), middleware.RequireScope(middleware.ScopeTenant))
	agreementhttp.RegisterRoutes(v1, d.Agreements, d.Contacts)
	notificationhttp.RegisterRoutes(v1, d.Notifications, d.Realtime)

	internal := r.Group("/internal/v1", middleware.Auth(d.JWTSecret))
	agreementhttp.RegisterInternalRoutes(internal, d.Tick)
}
