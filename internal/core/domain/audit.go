package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited staff action.
type AuditAction string

const (
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionRefundRequest    AuditAction = "REFUND_REQUEST"
	AuditActionRefundDecision   AuditAction = "REFUND_DECISION"
	AuditActionNotificationSend AuditAction = "NOTIFICATION_SEND"
)

// AuditLog records a single audited staff action.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	StaffID      *uuid.UUID  `json:"staff_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
