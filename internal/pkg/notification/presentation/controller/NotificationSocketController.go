package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/realtime"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
)

// NotificationSocketController streams a tenant's notifications over a
// websocket. On connect it replays unread notifications; clients
// acknowledge with {"type":"ack","ids":[...]}.
type NotificationSocketController struct {
	router          *realtime.Router
	listUC          *usecase.ListNotificationsUseCase
	markReadUC      *usecase.MarkReadUseCase
	inflightTimeout time.Duration
}

func NewNotificationSocketController(router *realtime.Router, list *usecase.ListNotificationsUseCase, markRead *usecase.MarkReadUseCase) *NotificationSocketController {
	return &NotificationSocketController{
		router:          router,
		listUC:          list,
		markReadUC:      markRead,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the JWT is the gate; dashboards may be served from another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids,omitempty"`
}

type ackFrame struct {
	Type   string `json:"type"`
	Marked int64  `json:"marked,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

const defaultReadTimeout = 60 * time.Second

func (ctl *NotificationSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := middleware.GetTenant(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "tenant claim is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response
			logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
			return
		}

		conn := realtime.NewConnection(tenantID, ws)
		ctl.router.Attach(conn)
		defer func() {
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(64 << 10)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.send(conn, ackFrame{Type: "connected"})
		ctl.replayUnread(c, conn, tenantID)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "ack":
				ctl.handleAck(c, conn, tenantID, frame)
			case "ping":
				ctl.send(conn, ackFrame{Type: "pong"})
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *NotificationSocketController) replayUnread(c *gin.Context, conn *realtime.Connection, tenantID string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	items, err := ctl.listUC.Execute(ctx, usecase.ListNotificationsInput{TenantID: tenantID, UnreadOnly: true})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	// oldest first so the client sees them in order
	for i := len(items) - 1; i >= 0; i-- {
		ctl.send(conn, usecase.Frame{Type: "notification", Notification: &items[i]})
	}
}

func (ctl *NotificationSocketController) handleAck(c *gin.Context, conn *realtime.Connection, tenantID string, frame inboundFrame) {
	if len(frame.IDs) == 0 {
		ctl.replyError(conn, "bad_request", "ids are required")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	n, err := ctl.markReadUC.Execute(ctx, usecase.MarkReadInput{TenantID: tenantID, IDs: frame.IDs})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	ctl.send(conn, ackFrame{Type: "acked", Marked: n})
}

func (ctl *NotificationSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	if errors.Is(err, usecase.ErrPersistence) {
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
		return
	}
	ctl.replyError(conn, "bad_request", err.Error())
}

func (ctl *NotificationSocketController) replyError(conn *realtime.Connection, code, message string) {
	ctl.send(conn, errorFrame{Type: "error", Code: code, Error: message})
}

func (ctl *NotificationSocketController) send(conn *realtime.Connection, v any) {
	if payload, err := json.Marshal(v); err == nil {
		_ = conn.Send(payload)
	}
}
