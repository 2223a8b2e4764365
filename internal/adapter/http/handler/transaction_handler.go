package handler

import (
	"strconv"
	"time"

	"moroccoin-backoffice/internal/adapter/http/dto"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles the read-only ledger endpoints.
type TransactionHandler struct {
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{reportingSvc: reportingSvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	params := ports.TransactionListParams{
		Search:   c.Query("search"),
		UserID:   c.Query("user_id"),
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(t)
		params.Type = &txType
	}
	if f := c.Query("from"); f != "" {
		if v, err := strconv.ParseInt(f, 10, 64); err == nil {
			ts := time.Unix(v, 0).UTC()
			params.From = &ts
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := strconv.ParseInt(t, 10, 64); err == nil {
			ts := time.Unix(v, 0).UTC()
			params.To = &ts
		}
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewListResponse(toTransactionResponses(txns), total, page, pageSize))
}

// GetByID handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) GetByID(c *gin.Context) {
	txn, err := h.reportingSvc.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:           t.ID,
		SenderID:     t.SenderID,
		ReceiverID:   t.ReceiverID,
		SenderName:   t.SenderName,
		ReceiverName: t.ReceiverName,
		Amount:       t.Amount,
		Currency:     t.Currency,
		Fees:         t.Fees,
		Description:  t.Description,
		Status:       string(t.Status),
		Type:         string(t.Type),
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

func toTransactionResponses(txns []domain.Transaction) []dto.TransactionResponse {
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	return items
}
