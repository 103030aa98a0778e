package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/presentation/controller"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
)

// RegisterRoutes mounts the tenant agreement API under an authenticated group.
func RegisterRoutes(g *gin.RouterGroup, agreements port.AgreementRepository, contacts contactport.ContactRepository) {
	listCtl := controller.NewListAgreementsController(usecase.NewListAgreementsUseCase(agreements, contacts))
	transitionCtl := controller.NewTransitionAgreementController(usecase.NewTransitionAgreementUseCase(agreements))

	// GET /api/v1/agreements?role=lent|borrowed -> grouped by counterparty and due date
	g.GET("/agreements", listCtl.Handle())

	// POST /api/v1/agreements/:id/transitions -> {"status": "...", "due_date": "YYYY-MM-DD"}
	g.POST("/agreements/:id/transitions", transitionCtl.Handle())
}

// RegisterInternalRoutes mounts the scheduler-only lifecycle endpoint.
func RegisterInternalRoutes(g *gin.RouterGroup, tick *usecase.LifecycleTickUseCase) {
	tickCtl := controller.NewLifecycleTickController(tick)

	// POST /internal/v1/lifecycle/tick -> active -> due_soon -> overdue
	g.POST("/lifecycle/tick", middleware.RequireScope(middleware.ScopeScheduler), tickCtl.Handle())
}
