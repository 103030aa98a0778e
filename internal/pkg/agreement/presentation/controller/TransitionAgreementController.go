package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
)

// TransitionAgreementController serves POST /agreements/:id/transitions.
type TransitionAgreementController struct {
	uc *usecase.TransitionAgreementUseCase
}

func NewTransitionAgreementController(uc *usecase.TransitionAgreementUseCase) *TransitionAgreementController {
	return &TransitionAgreementController{uc: uc}
}

type transitionRequest struct {
	Status  agreement.Status `json:"status"`
	DueDate string           `json:"due_date"`
	Reason  string           `json:"reason"`
}

func (h *TransitionAgreementController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		var due time.Time
		if req.DueDate != "" {
			parsed, err := time.Parse(time.DateOnly, req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
				return
			}
			due = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		a, err := h.uc.Execute(ctx, usecase.TransitionAgreementInput{
			TenantID:    middleware.GetTenant(c),
			AgreementID: c.Param("id"),
			Status:      req.Status,
			DueDate:     due,
			Reason:      req.Reason,
		})
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update agreement"})
			case errors.Is(err, agreement.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, agreement.ErrInvalidTransition):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"agreement": toAgreementPayload(*a)})
	}
}
