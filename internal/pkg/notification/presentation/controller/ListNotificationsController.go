package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
)

// ListNotificationsController serves GET /notifications for the token's tenant.
type ListNotificationsController struct {
	uc *usecase.ListNotificationsUseCase
}

func NewListNotificationsController(uc *usecase.ListNotificationsUseCase) *ListNotificationsController {
	return &ListNotificationsController{uc: uc}
}

func (h *ListNotificationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		unread, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		items, err := h.uc.Execute(ctx, usecase.ListNotificationsInput{
			TenantID:   middleware.GetTenant(c),
			UnreadOnly: unread,
			Limit:      limit,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": items})
	}
}
