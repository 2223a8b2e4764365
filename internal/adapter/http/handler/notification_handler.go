package handler

import (
	"time"

	"moroccoin-backoffice/internal/adapter/http/dto"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

// NotificationHandler handles the user notification endpoints.
type NotificationHandler struct {
	notificationSvc ports.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationSvc ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// Send handles POST /api/v1/notifications.
func (h *NotificationHandler) Send(c *gin.Context) {
	var req dto.NotificationSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	staffID, ok := currentStaffID(c)
	if !ok {
		response.Error(c, apperror.ErrMissingCredential())
		return
	}

	n, err := h.notificationSvc.Send(c.Request.Context(), ports.NotificationSendRequest{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Channel: domain.NotificationChannel(req.Channel),
		SentBy:  staffID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toNotificationResponse(n))
}

func toNotificationResponse(n *domain.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:      n.ID.String(),
		UserID:  n.UserID,
		Title:   n.Title,
		Message: n.Message,
		Channel: string(n.Channel),
		Status:  string(n.Status),
	}
	if n.SentAt != nil {
		s := n.SentAt.UTC().Format(time.RFC3339)
		resp.SentAt = &s
	}
	return resp
}
