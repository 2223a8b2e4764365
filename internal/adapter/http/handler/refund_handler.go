package handler

import (
	"strconv"
	"time"

	"moroccoin-backoffice/internal/adapter/http/dto"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RefundHandler handles the refund workflow endpoints.
type RefundHandler struct {
	refundSvc ports.RefundService
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(refundSvc ports.RefundService) *RefundHandler {
	return &RefundHandler{refundSvc: refundSvc}
}

// Create handles POST /api/v1/refunds.
func (h *RefundHandler) Create(c *gin.Context) {
	var req dto.RefundCreateRequest
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

	refund, err := h.refundSvc.Request(c.Request.Context(), ports.RefundRequest{
		TransactionID: req.TransactionID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		RequestedBy:   staffID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toRefundResponse(refund))
}

// Process handles POST /api/v1/refunds/:id/process. Admin only.
func (h *RefundHandler) Process(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid refund id"))
		return
	}

	var req dto.RefundDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	staffID, ok := currentStaffID(c)
	if !ok {
		response.Error(c, apperror.ErrMissingCredential())
		return
	}

	refund, err := h.refundSvc.Decide(c.Request.Context(), refundID, domain.RefundAction(req.Action), staffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toRefundResponse(refund))
}

// List handles GET /api/v1/refunds.
func (h *RefundHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	params := ports.RefundListParams{
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.RefundStatus(s)
		params.Status = &status
	}

	refunds, total, err := h.refundSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.RefundResponse, 0, len(refunds))
	for i := range refunds {
		items = append(items, toRefundResponse(&refunds[i]))
	}

	response.OK(c, dto.NewListResponse(items, total, page, pageSize))
}

func toRefundResponse(r *domain.Refund) dto.RefundResponse {
	resp := dto.RefundResponse{
		ID:            r.ID.String(),
		TransactionID: r.TransactionID,
		UserID:        r.UserID,
		Amount:        r.Amount,
		Reason:        r.Reason,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.ProcessedBy != nil {
		s := r.ProcessedBy.String()
		resp.ProcessedBy = &s
	}
	if r.ProcessedAt != nil {
		s := r.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

// parsePagination reads page/page_size query parameters with sane bounds.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
