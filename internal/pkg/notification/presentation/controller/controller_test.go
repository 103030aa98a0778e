package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/realtime"
	notification "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
	"github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/adapter"
)

const secret = "test-secret"

func setup(t *testing.T) (*gin.Engine, *adapter.MemoryNotificationRepository, *realtime.Router) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := adapter.NewMemoryNotificationRepository()
	router := realtime.NewRouter(2)
	t.Cleanup(router.Close)

	list := usecase.NewListNotificationsUseCase(repo)
	r := gin.New()
	g := r.Group("/api/v1", middleware.Auth(secret), middleware.RequireScope(middleware.ScopeTenant))
	g.GET("/notifications", NewListNotificationsController(list).Handle())
	g.GET("/notifications/ws", NewNotificationSocketController(router, list, usecase.NewMarkReadUseCase(repo)).Handle())
	return r, repo, router
}

func token(t *testing.T, tenant string) string {
	t.Helper()
	tok, err := middleware.GenerateToken(secret, tenant, []string{middleware.ScopeTenant}, time.Hour)
	require.NoError(t, err)
	return tok
}

func seed(t *testing.T, repo *adapter.MemoryNotificationRepository, tenant, title string) string {
	t.Helper()
	n, err := usecase.NewNotifyTenantUseCase(repo, nil).Execute(context.Background(), usecase.NotifyTenantInput{
		TenantID: tenant, Kind: notification.KindLoanReceived, Title: title,
	})
	require.NoError(t, err)
	return n.ID
}

func TestListNotifications(t *testing.T) {
	r, repo, _ := setup(t)
	seed(t, repo, "t1", "hola")
	seed(t, repo, "t2", "otro tenant")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "t1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Notifications []notification.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "hola", body.Notifications[0].Title)
}

func TestListNotificationsRequiresToken(t *testing.T) {
	r, _, _ := setup(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestNotificationSocket(t *testing.T) {
	r, repo, router := setup(t)
	id := seed(t, repo, "t1", "pendiente")

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notifications/ws?token=" + token(t, "t1")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	assert.Equal(t, "connected", readFrame(t, ws)["type"])

	backlog := readFrame(t, ws)
	assert.Equal(t, "notification", backlog["type"])
	assert.Equal(t, id, backlog["notification"].(map[string]any)["id"])

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "ack", "ids": []string{id}}))
	acked := readFrame(t, ws)
	assert.Equal(t, "acked", acked["type"])
	assert.EqualValues(t, 1, acked["marked"])

	// live push through the router reaches the socket
	assert.Eventually(t, func() bool { return router.Connections("t1") == 1 }, time.Second, 10*time.Millisecond)
	_, err = usecase.NewNotifyTenantUseCase(repo, router).Execute(context.Background(), usecase.NotifyTenantInput{
		TenantID: "t1", Kind: notification.KindOptInRejected, Title: "en vivo",
	})
	require.NoError(t, err)
	live := readFrame(t, ws)
	assert.Equal(t, "en vivo", live["notification"].(map[string]any)["title"])

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "bogus"}))
	assert.Equal(t, "error", readFrame(t, ws)["type"])
}
