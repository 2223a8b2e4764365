package handler

import (
	"time"

	"moroccoin-backoffice/internal/adapter/http/dto"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler handles the audit trail listing endpoint.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// List handles GET /api/v1/audit-logs. Admin only.
func (h *AuditHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	params := ports.AuditListParams{
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("staff_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			params.StaffID = &id
		}
	}
	if a := c.Query("action"); a != "" {
		action := domain.AuditAction(a)
		params.Action = &action
	}

	entries, total, err := h.auditSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, toAuditLogResponse(&entries[i]))
	}

	response.OK(c, dto.NewListResponse(items, total, page, pageSize))
}

func toAuditLogResponse(e *domain.AuditLog) dto.AuditLogResponse {
	resp := dto.AuditLogResponse{
		ID:           e.ID.String(),
		Action:       string(e.Action),
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IPAddress:    e.IPAddress,
		Details:      e.Details,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.StaffID != nil {
		s := e.StaffID.String()
		resp.StaffID = &s
	}
	return resp
}
