package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "moroccoin-backoffice/internal/adapter/http/handler"
	redisStorage "moroccoin-backoffice/internal/adapter/storage/redis"
	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/service"
	"moroccoin-backoffice/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret = "integration-test-secret-32bytes!"
	testIssuer    = "moroccoin-backoffice-test"

	adminPassword   = "Adm1n-Pass!234"
	supportPassword = "Supp0rt-Pass!234"
)

// testApp builds the full application stack on in-memory storage: miniredis
// behind the real Redis stores, in-memory postgres repos, and the real HTTP
// layer, middleware, handlers, and services end-to-end.
type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis

	staffRepo  *inMemoryStaffRepo
	userRepo   *inMemoryUserRepo
	txnRepo    *inMemoryTransactionRepo
	refundRepo *inMemoryRefundRepo
	publisher  *inMemoryPublisher

	admin   *domain.Staff
	support *domain.Staff
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	statsCache := redisStorage.NewStatsCache(rdb)

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(testJWTSecret, time.Hour, testIssuer)

	// In-memory repos
	staffRepo := newInMemoryStaffRepo()
	userRepo := newInMemoryUserRepo()
	txnRepo := newInMemoryTransactionRepo()
	refundRepo := newInMemoryRefundRepo()
	notifRepo := newInMemoryNotificationRepo()
	auditRepo := newInMemoryAuditRepo()
	transactor := newInMemoryTransactor()
	publisher := newInMemoryPublisher()

	// Seed staff accounts
	adminHash, err := hashSvc.Hash(adminPassword)
	require.NoError(t, err)
	supportHash, err := hashSvc.Hash(supportPassword)
	require.NoError(t, err)

	admin := &domain.Staff{
		ID:           uuid.New(),
		Username:     "fatima.admin",
		PasswordHash: adminHash,
		Email:        "fatima@moroccoin.ma",
		FirstName:    "Fatima",
		LastName:     "Zahra",
		Role:         domain.StaffRoleAdmin,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	support := &domain.Staff{
		ID:           uuid.New(),
		Username:     "youssef.support",
		PasswordHash: supportHash,
		Email:        "youssef@moroccoin.ma",
		FirstName:    "Youssef",
		LastName:     "Berrada",
		Role:         domain.StaffRoleSupport,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	staffRepo.add(admin)
	staffRepo.add(support)

	// Business services
	log := logger.New("debug", false)
	authSvc := service.NewAuthService(staffRepo, hashSvc, tokenSvc, log)
	refundSvc := service.NewRefundService(refundRepo, txnRepo, transactor, publisher, log)
	reportingSvc := service.NewReportingService(userRepo, txnRepo, refundRepo, statsCache, "MAD", log)
	notificationSvc := service.NewNotificationService(notifRepo, userRepo, publisher, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		RefundSvc:       refundSvc,
		ReportingSvc:    reportingSvc,
		NotificationSvc: notificationSvc,
		TokenSvc:        tokenSvc,
		AuditSvc:        auditSvc,
		RateLimitStore:  rateLimitStore,
		ExemptPaths:     []string{"/health", "/api/v1/auth/login"},
		Logger:          log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:     server,
		redis:      mr,
		staffRepo:  staffRepo,
		userRepo:   userRepo,
		txnRepo:    txnRepo,
		refundRepo: refundRepo,
		publisher:  publisher,
		admin:      admin,
		support:    support,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// seedLedger adds one verified user and one completed 150,000 centime
// transaction, the standard fixture for the refund scenarios.
func (a *testApp) seedLedger() {
	now := time.Now()
	a.userRepo.add(&domain.User{
		ID:                 "USR-1001",
		Email:              "amina@example.ma",
		Phone:              "+212600000001",
		FirstName:          "Amina",
		LastName:           "El Fassi",
		Country:            "MA",
		VerificationStatus: domain.UserVerificationVerified,
		Balance:            500000,
		Active:             true,
		CreatedAt:          now.Add(-30 * 24 * time.Hour),
	})
	completedAt := now.Add(-time.Hour)
	a.txnRepo.add(&domain.Transaction{
		ID:           "TXN-2024-0001",
		SenderID:     "USR-1001",
		SenderName:   "Amina El Fassi",
		ReceiverName: "Karim Benani",
		Amount:       150000,
		Currency:     "MAD",
		Fees:         1500,
		Status:       domain.TransactionStatusCompleted,
		Type:         domain.TransactionTypeSend,
		CreatedAt:    now.Add(-2 * time.Hour),
		UpdatedAt:    completedAt,
		CompletedAt:  &completedAt,
	})
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(a.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotEmpty(t, result.Data.Token)
	return result.Data.Token
}

func (a *testApp) do(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Data
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var result struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.ErrorCode
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_LoginAndProtectedAccess(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	// Without a token the gate fails closed.
	resp := app.do(t, http.MethodGet, "/api/v1/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_002", errorCode(t, resp))

	// Login, then the same route answers.
	token := app.login(t, "fatima.admin", adminPassword)
	resp = app.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, float64(1), data["total"])

	// Profile reflects the logged-in identity.
	resp = app.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeData(t, resp)
	assert.Equal(t, "fatima.admin", profile["username"])
}

func TestIntegration_ExpiredTokenRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Mint an already-expired token with the same secret and issuer.
	expiredSvc := service.NewJWTTokenService(testJWTSecret, -time.Minute, testIssuer)
	token, _, err := expiredSvc.Issue(app.admin)
	require.NoError(t, err)

	resp := app.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_003", errorCode(t, resp))
}

func TestIntegration_LoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	body, _ := json.Marshal(map[string]string{"username": "fatima.admin", "password": "nope-nope"})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_001", errorCode(t, resp))
}

func TestIntegration_RefundOverAmountRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	token := app.login(t, "fatima.admin", adminPassword)

	resp := app.do(t, http.MethodPost, "/api/v1/refunds", token, map[string]any{
		"transaction_id": "TXN-2024-0001",
		"amount":         150001, // one centime over
		"reason":         "customer dispute",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "REF_001", errorCode(t, resp))

	// Nothing persisted.
	resp = app.do(t, http.MethodGet, "/api/v1/refunds", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, float64(0), data["total"])
}

func TestIntegration_FullRefundFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	token := app.login(t, "fatima.admin", adminPassword)

	// Open the refund.
	resp := app.do(t, http.MethodPost, "/api/v1/refunds", token, map[string]any{
		"transaction_id": "TXN-2024-0001",
		"amount":         150000,
		"reason":         "customer dispute",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData(t, resp)
	refundID := created["refund_id"].(string)
	assert.Equal(t, "pending", created["status"])

	// Approve it.
	resp = app.do(t, http.MethodPost, "/api/v1/refunds/"+refundID+"/process", token, map[string]string{
		"action": "approve",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decided := decodeData(t, resp)
	assert.Equal(t, "approved", decided["status"])
	assert.Equal(t, app.admin.ID.String(), decided["processed_by"])

	// The ledger entry flipped atomically with the decision.
	resp = app.do(t, http.MethodGet, "/api/v1/transactions/TXN-2024-0001", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	txn := decodeData(t, resp)
	assert.Equal(t, "refunded", txn["status"])

	// A second decision on the same refund conflicts.
	resp = app.do(t, http.MethodPost, "/api/v1/refunds/"+refundID+"/process", token, map[string]string{
		"action": "reject",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "REF_003", errorCode(t, resp))

	// The decision published a notification event keyed by the user.
	msgs := app.publisher.published()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "USR-1001", msgs[len(msgs)-1].Key)
	assert.Contains(t, string(msgs[len(msgs)-1].Payload), "refund.decided")
}

func TestIntegration_SupportCannotDecideRefunds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	adminToken := app.login(t, "fatima.admin", adminPassword)
	supportToken := app.login(t, "youssef.support", supportPassword)

	// Support may open a refund...
	resp := app.do(t, http.MethodPost, "/api/v1/refunds", supportToken, map[string]any{
		"transaction_id": "TXN-2024-0001",
		"amount":         50000,
		"reason":         "partial dispute",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	refundID := decodeData(t, resp)["refund_id"].(string)

	// ...but not decide it.
	resp = app.do(t, http.MethodPost, "/api/v1/refunds/"+refundID+"/process", supportToken, map[string]string{
		"action": "approve",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "AUTH_005", errorCode(t, resp))

	// The admin can.
	resp = app.do(t, http.MethodPost, "/api/v1/refunds/"+refundID+"/process", adminToken, map[string]string{
		"action": "approve",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegration_NotificationSend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	token := app.login(t, "fatima.admin", adminPassword)

	resp := app.do(t, http.MethodPost, "/api/v1/notifications", token, map[string]string{
		"user_id":           "USR-1001",
		"title":             "Refund approved",
		"message":           "Your refund of 1500.00 MAD has been approved.",
		"notification_type": "push",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "sent", data["status"])

	msgs := app.publisher.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "USR-1001", msgs[0].Key)
	assert.Contains(t, string(msgs[0].Payload), "notification.send")
}

func TestIntegration_DashboardStats(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	token := app.login(t, "fatima.admin", adminPassword)

	resp := app.do(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "MAD", data["currency"])

	users := data["users"].(map[string]interface{})
	assert.Equal(t, float64(1), users["total"])
	txns := data["transactions"].(map[string]interface{})
	assert.Equal(t, float64(150000), txns["total_volume"])
}

func TestIntegration_LoginRateLimited(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// The login group allows 10 attempts per minute per client.
	var last *http.Response
	for i := 0; i < 11; i++ {
		body, _ := json.Marshal(map[string]string{"username": "fatima.admin", "password": "wrong-pass"})
		resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		if last != nil {
			last.Body.Close()
		}
		last = resp
	}

	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.Equal(t, "RATE_001", errorCode(t, last))
	assert.NotEmpty(t, last.Header.Get("Retry-After"))
}

func TestIntegration_UserLookup(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedLedger()

	token := app.login(t, "fatima.admin", adminPassword)

	resp := app.do(t, http.MethodGet, "/api/v1/users/USR-1001", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "amina@example.ma", data["email"])

	resp = app.do(t, http.MethodGet, "/api/v1/users/USR-MISSING", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "RES_001", errorCode(t, resp))

	resp = app.do(t, http.MethodGet, "/api/v1/users/USR-1001/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeData(t, resp)
	assert.Equal(t, float64(1), history["total"])
}

func fmtRefundPath(id string) string {
	return fmt.Sprintf("/api/v1/refunds/%s/process", id)
}
