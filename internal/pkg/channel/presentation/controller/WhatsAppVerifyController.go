package controller

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WhatsAppVerifyController answers the Meta subscription handshake.
type WhatsAppVerifyController struct {
	token string
}

func NewWhatsAppVerifyController(token string) *WhatsAppVerifyController {
	return &WhatsAppVerifyController{token: token}
}

func (h *WhatsAppVerifyController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := c.Query("hub.mode")
		got := c.Query("hub.verify_token")
		if mode != "subscribe" || h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			c.String(http.StatusForbidden, "forbidden")
			return
		}
		c.String(http.StatusOK, c.Query("hub.challenge"))
	}
}
