package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that records successful write
// operations. It maps HTTP methods and paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var staffID *uuid.UUID
		if sid, exists := c.Get(CtxStaffID); exists {
			if id, ok := sid.(uuid.UUID); ok {
				staffID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			StaffID:      staffID,
			Action:       action,
			ResourceType: resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/auth/login" && method == "POST":
		return domain.AuditActionLogin, "session"
	case path == "/api/v1/refunds" && method == "POST":
		return domain.AuditActionRefundRequest, "refund"
	case strings.HasPrefix(path, "/api/v1/refunds/") && strings.HasSuffix(path, "/process") && method == "POST":
		return domain.AuditActionRefundDecision, "refund"
	case path == "/api/v1/notifications" && method == "POST":
		return domain.AuditActionNotificationSend, "notification"
	}
	return "", ""
}
