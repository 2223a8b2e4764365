package handler

import (
	"net/http"

	"moroccoin-backoffice/internal/adapter/http/dto"
	"moroccoin-backoffice/internal/adapter/http/middleware"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles staff authentication endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Unix(),
		Staff:     toStaffResponse(result.Staff),
	})
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless and cannot
// be revoked; the client discards its copy and this endpoint acknowledges.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.OK(c, gin.H{"message": "logged out"})
}

// Profile handles GET /api/v1/auth/me.
func (h *AuthHandler) Profile(c *gin.Context) {
	staffID, ok := currentStaffID(c)
	if !ok {
		response.Error(c, apperror.ErrMissingCredential())
		return
	}

	staff, err := h.authSvc.GetProfile(c.Request.Context(), staffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toStaffResponse(staff))
}

func toStaffResponse(s *domain.Staff) dto.StaffResponse {
	return dto.StaffResponse{
		ID:        s.ID.String(),
		Username:  s.Username,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Role:      string(s.Role),
	}
}

// currentStaffID reads the authenticated staff identity bound by the
// auth gate.
func currentStaffID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.CtxStaffID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
