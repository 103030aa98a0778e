package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
)

// quietRoutes are polled by orchestrators and only logged at debug.
var quietRoutes = map[string]bool{"/health": true, "/metrics": true}

// RequestLogger logs one line per request under the route template, so
// webhook paths with tenant ids group together.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		route := routeOf(c)
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"route", route,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		switch {
		case status >= 500:
			logger.Error(ctx, "request completed", attrs...)
		case status >= 400:
			logger.Warn(ctx, "request completed", attrs...)
		case quietRoutes[route]:
			logger.Debug(ctx, "request completed", attrs...)
		default:
			logger.Info(ctx, "request completed", attrs...)
		}
	}
}

// WebhookScope annotates provider deliveries with their channel and, when
// the route names one, the tenant.
func WebhookScope(channel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithChannel(c.Request.Context(), channel)
		if tenant := c.Param("tenantId"); tenant != "" {
			ctx = logger.WithTenant(ctx, tenant)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}
