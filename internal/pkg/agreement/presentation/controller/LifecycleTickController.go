package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
)

// LifecycleTickController serves POST /internal/v1/lifecycle/tick for an
// external scheduler.
type LifecycleTickController struct {
	uc *usecase.LifecycleTickUseCase
}

func NewLifecycleTickController(uc *usecase.LifecycleTickUseCase) *LifecycleTickController {
	return &LifecycleTickController{uc: uc}
}

func (h *LifecycleTickController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		res, err := h.uc.Execute(ctx, time.Now())
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "lifecycle tick failed"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
