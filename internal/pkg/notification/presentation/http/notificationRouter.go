package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/realtime"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/presentation/controller"
)

// RegisterRoutes mounts the tenant inbox under an authenticated group.
func RegisterRoutes(g *gin.RouterGroup, repo port.NotificationRepository, router *realtime.Router) {
	list := usecase.NewListNotificationsUseCase(repo)
	listCtl := controller.NewListNotificationsController(list)
	socketCtl := controller.NewNotificationSocketController(router, list, usecase.NewMarkReadUseCase(repo))

	// GET /api/v1/notifications -> newest first, ?unread=true&limit=N
	g.GET("/notifications", listCtl.Handle())

	// GET /api/v1/notifications/ws -> realtime feed (token in ?token=)
	g.GET("/notifications/ws", socketCtl.Handle())
}
