package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
)

func TestRequestIDGeneratedAndReused(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "existing-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "existing-123", w.Body.String())
}

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Recovery(), RequestLogger())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")
}

func authRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/", Auth(secret))
	api.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetTenant(c))
	})
	api.GET("/tick", RequireScope(ScopeScheduler), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	router := authRouter(secret)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "bad format", header: "Token abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	token, err := GenerateToken(secret, "tenant-1", []string{ScopeTenant}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant-1", w.Body.String())

	// query parameter form used by websocket clients
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/tick", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthRejectsExpiredAndForeignTokens(t *testing.T) {
	router := authRouter("test-secret")

	expired, err := GenerateToken("test-secret", "t", nil, -time.Minute)
	require.NoError(t, err)
	foreign, err := GenerateToken("other-secret", "t", nil, time.Hour)
	require.NoError(t, err)

	for _, tok := range []string{expired, foreign} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestSchedulerScope(t *testing.T) {
	router := authRouter("test-secret")
	token, err := GenerateToken("test-secret", "", []string{ScopeScheduler}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/tick", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logger.New(&logger.Config{Level: level, Format: "text"}, &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWebhookPanicLogCarriesTenantAndChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := captureLogs(t, "debug")

	router := gin.New()
	router.Use(RequestID(), RequestLogger(), Recovery())
	router.POST("/webhooks/telegram/:tenantId", WebhookScope("telegram"), func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/telegram/t-9", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	out := logs.String()
	assert.Contains(t, out, "panic recovered")
	assert.Contains(t, out, "tenant=t-9")
	assert.Contains(t, out, "channel=telegram")
	assert.Contains(t, out, "route=/webhooks/telegram/:tenantId")
}

func TestRequestLoggerQuietsHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := captureLogs(t, "info")

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/agreements", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, logs.String())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/agreements", nil))
	assert.Contains(t, logs.String(), "route=/api/v1/agreements")
}
