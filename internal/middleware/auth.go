package middleware

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ClaimsKey is the gin context key holding *models.JWTClaims
const ClaimsKey = "claims"

// AuthMiddleware extracts the JWT claims of the caller.
// Signatures are verified by the gateway; only shape, subject and expiry are checked here.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewError("Nao autorizado", nil))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewError("Formato de autorizacao invalido", nil))
			return
		}

		claims, err := extractClaims(parts[1])
		if err != nil {
			observability.Logger().Warn("failed to extract claims from token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewError("Token invalido", nil))
			return
		}
		if claims.IsExpired(time.Now().Unix()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewError("Token expirado", nil))
			return
		}

		trace.SpanFromContext(c.Request.Context()).SetAttributes(
			attribute.String("enduser.id", claims.SUB),
			attribute.StringSlice("auth.audiences", claims.GetAudiences()),
		)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// extractClaims decodes the payload segment of a JWT
func extractClaims(token string) (*models.JWTClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid token format")
	}

	claimsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}

	var claims models.JWTClaims
	if err := json.Unmarshal(claimsBytes, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	if claims.SUB == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &claims, nil
}

// ClaimsFromContext returns the claims stored by AuthMiddleware
func ClaimsFromContext(c *gin.Context) (*models.JWTClaims, error) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, models.ErrUnauthorized
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}
