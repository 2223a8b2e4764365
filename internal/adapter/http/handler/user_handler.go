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

// UserHandler handles the read-only app-user endpoints.
type UserHandler struct {
	reportingSvc ports.ReportingService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(reportingSvc ports.ReportingService) *UserHandler {
	return &UserHandler{reportingSvc: reportingSvc}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	params := ports.UserListParams{
		Search:   c.Query("search"),
		Country:  c.Query("country"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("verification_status"); v != "" {
		status := domain.UserVerificationStatus(v)
		params.VerificationStatus = &status
	}
	if a := c.Query("is_active"); a != "" {
		if active, err := strconv.ParseBool(a); err == nil {
			params.Active = &active
		}
	}

	users, total, err := h.reportingSvc.ListUsers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}

	response.OK(c, dto.NewListResponse(items, total, page, pageSize))
}

// GetByID handles GET /api/v1/users/:id.
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.reportingSvc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toUserResponse(user))
}

// Transactions handles GET /api/v1/users/:id/transactions, the user's
// money-movement history matched as sender or receiver.
func (h *UserHandler) Transactions(c *gin.Context) {
	page, pageSize := parsePagination(c)

	txns, total, err := h.reportingSvc.ListUserTransactions(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewListResponse(toTransactionResponses(txns), total, page, pageSize))
}

func toUserResponse(u *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Phone:              u.Phone,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Country:            u.Country,
		VerificationStatus: string(u.VerificationStatus),
		Balance:            u.Balance,
		Active:             u.Active,
		CreatedAt:          u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		s := u.LastLogin.UTC().Format(time.RFC3339)
		resp.LastLogin = &s
	}
	return resp
}
