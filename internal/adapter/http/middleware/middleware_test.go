package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/internal/core/ports/mocks"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testExemptPaths = []string{"/health", "/api/v1/auth/login"}

func authRouter(tokenSvc ports.TokenService) *gin.Engine {
	router := gin.New()
	router.Use(Authenticate(tokenSvc, testExemptPaths, zerolog.Nop()))
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	router.POST("/api/v1/auth/login", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	router.GET("/api/v1/transactions", func(c *gin.Context) {
		sid, _ := c.Get(CtxStaffID)
		c.JSON(200, gin.H{"staff_id": sid})
	})
	return router
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["error_code"].(string)
	return code
}

func TestAuthenticate_ExemptPathsSkipVerification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)
	// No Verify expectation: exempt paths must never touch the token service.
	router := authRouter(tokenSvc)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/health"},
		{http.MethodPost, "/api/v1/auth/login"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)
	router := authRouter(tokenSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestAuthenticate_WrongScheme(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)
	router := authRouter(tokenSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestAuthenticate_UniformRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)
	router := authRouter(tokenSvc)

	// Expired, forged, and malformed tokens must produce the same error
	// code, message, and status so the rejection leaks nothing.
	rejections := []error{
		apperror.ErrTokenExpired(errors.New("token is expired")),
		apperror.ErrTokenSignatureInvalid(errors.New("signature is invalid")),
		apperror.ErrTokenMalformed(errors.New("segments")),
	}

	var messages []string
	for _, rejection := range rejections {
		tokenSvc.EXPECT().Verify("sometoken").Return(nil, rejection)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTH_003", errorCode(t, w))

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		msg, _ := body["message"].(string)
		messages = append(messages, msg)
	}

	for i := 1; i < len(messages); i++ {
		assert.Equal(t, messages[0], messages[i], "rejection responses must not leak the failure reason")
	}
}

func TestAuthenticate_BindsIdentityToContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokenSvc := mocks.NewMockTokenService(ctrl)
	staffID := uuid.New()
	tokenSvc.EXPECT().Verify("goodtoken").Return(&ports.StaffClaims{
		StaffID:  staffID,
		Username: "fatima.admin",
		Role:     domain.StaffRoleAdmin,
	}, nil)

	router := authRouter(tokenSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), staffID.String())
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.POST("/admin-only",
		func(c *gin.Context) {
			// Simulate Authenticate having run
			role := c.GetHeader("X-Test-Role")
			if role != "" {
				c.Set(CtxStaffRole, domain.StaffRole(role))
			}
		},
		RequireRole(domain.StaffRoleAdmin),
		func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) },
	)

	tests := []struct {
		role     string
		wantCode int
	}{
		{"admin", http.StatusOK},
		{"support", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
		if tt.role != "" {
			req.Header.Set("X-Test-Role", tt.role)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.wantCode, w.Code, "role %q", tt.role)
	}
}

func TestMaxBodySize(t *testing.T) {
	router := gin.New()
	router.Use(MaxBodySize(64))
	router.POST("/test", func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(200, gin.H{"ok": true})
	})

	small := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, small)
	assert.Equal(t, http.StatusOK, w.Code)

	big := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"`+strings.Repeat("x", 200)+`"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAuditLog_MapsRefundDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auditSvc := mocks.NewMockAuditService(ctrl)
	staffID := uuid.New()

	auditSvc.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ any, entry *domain.AuditLog) {
		assert.Equal(t, domain.AuditActionRefundDecision, entry.Action)
		assert.Equal(t, "refund", entry.ResourceType)
		require.NotNil(t, entry.StaffID)
		assert.Equal(t, staffID, *entry.StaffID)
	})

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(CtxStaffID, staffID) })
	router.Use(AuditLog(auditSvc))
	router.POST("/api/v1/refunds/:id/process", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refunds/"+uuid.NewString()+"/process", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditLog_SkipsReadsAndFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auditSvc := mocks.NewMockAuditService(ctrl)
	// No Log expectation.

	router := gin.New()
	router.Use(AuditLog(auditSvc))
	router.GET("/api/v1/refunds", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	router.POST("/api/v1/refunds", func(c *gin.Context) { c.JSON(400, gin.H{"error": "bad"}) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/refunds", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/refunds", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
}
