package middleware

import (
	"net/http"
	"strings"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Context keys
	CtxStaffID       = "staff_id"
	CtxStaffUsername = "staff_username"
	CtxStaffRole     = "staff_role"
)

// Authenticate creates the global auth gate. Every request passes through
// it; only the configured exempt paths (exact match) skip verification.
// All verification failures produce the same AUTH_003 response; the
// precise reason is logged server-side only, so a probing client cannot
// distinguish forged from expired tokens.
func Authenticate(tokenSvc ports.TokenService, exemptPaths []string, log zerolog.Logger) gin.HandlerFunc {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := exempt[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperror.ErrMissingCredential())
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Error(c, apperror.ErrMissingCredential())
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokenSvc.Verify(tokenStr)
		if err != nil {
			log.Warn().Err(err).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("token rejected")
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxStaffID, claims.StaffID)
		c.Set(CtxStaffUsername, claims.Username)
		c.Set(CtxStaffRole, claims.Role)
		c.Next()
	}
}

// RequireRole restricts a route to staff holding the given role.
// Runs after Authenticate, which binds the role to the context.
func RequireRole(role domain.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxStaffRole)
		if !exists {
			response.Error(c, apperror.ErrMissingCredential())
			c.Abort()
			return
		}
		if r, ok := v.(domain.StaffRole); !ok || r != role {
			response.Error(c, apperror.ErrForbiddenRole())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and the
// request is rejected with 413 Payload Too Large.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
