package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Scopes carried by API tokens.
const (
	ScopeTenant    = "tenant"
	ScopeScheduler = "scheduler"
)

// Claims are the JWT claims accepted by the tenant and internal APIs.
type Claims struct {
	Tenant string   `json:"tenant"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for tenant. Token issuance for end users lives
// elsewhere; this is used by operators and tests.
func GenerateToken(secret, tenant string, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Tenant: tenant,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Auth validates an HS256 bearer token. Websocket clients may pass it as the
// "token" query parameter since browsers cannot set headers on upgrade.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("tenant", claims.Tenant)
		c.Set("scopes", claims.Scopes)
		if claims.Tenant != "" {
			c.Request = c.Request.WithContext(logger.WithTenant(c.Request.Context(), claims.Tenant))
		}

		c.Next()
	}
}

// RequireScope rejects tokens lacking scope. Must run after Auth.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scopes, _ := c.Get("scopes")
		list, _ := scopes.([]string)
		if !slices.Contains(list, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing scope " + scope})
			return
		}
		c.Next()
	}
}

func GetTenant(c *gin.Context) string {
	if tenant, exists := c.Get("tenant"); exists {
		if s, ok := tenant.(string); ok {
			return s
		}
	}
	return ""
}

// TenantFromContext is the context.Context counterpart of GetTenant.
func TenantFromContext(ctx context.Context) string {
	s, _ := ctx.Value(logger.TenantKey).(string)
	return s
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if q := c.Query("token"); q != "" {
		return q, true
	}
	return "", false
}
