package ports

import (
	"context"
	"time"

	"moroccoin-backoffice/internal/core/domain"

	"github.com/google/uuid"
)

// TokenService issues and verifies signed, time-bounded session tokens.
// Verification is stateless: the signature is the proof of prior issuance,
// no store lookup happens.
type TokenService interface {
	Issue(staff *domain.Staff) (string, time.Time, error)
	Verify(tokenString string) (*StaffClaims, error)
}

// StaffClaims holds the identity embedded in a verified token.
type StaffClaims struct {
	StaffID  uuid.UUID
	Username string
	Role     domain.StaffRole
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// EventPublisher publishes notification events to the broker.
// Failures are logged by callers, never surfaced to financial flows.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// --- Service Ports (Business Logic) ---

// AuthService defines staff authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GetProfile(ctx context.Context, staffID uuid.UUID) (*domain.Staff, error)
}

// LoginResult is the successful login payload.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Staff     *domain.Staff
}

// RefundService governs the refund lifecycle state machine.
type RefundService interface {
	Request(ctx context.Context, req RefundRequest) (*domain.Refund, error)
	Decide(ctx context.Context, refundID uuid.UUID, action domain.RefundAction, actorID uuid.UUID) (*domain.Refund, error)
	List(ctx context.Context, params RefundListParams) ([]domain.Refund, int64, error)
}

// RefundRequest holds validated input for opening a refund.
type RefundRequest struct {
	TransactionID string
	UserID        string
	Amount        int64
	Reason        string
	RequestedBy   uuid.UUID
}

// ReportingService is the read-only query surface over the ledger and
// user store.
type ReportingService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListUserTransactions(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error)
	ListUsers(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	ChartData(ctx context.Context, days int) ([]DailyVolume, error)
}

// DashboardStats aggregates the numbers shown on the dashboard landing page.
type DashboardStats struct {
	Users        UserStats
	Transactions TransactionStats
	Refunds      RefundStats
	Currency     string
}

// NotificationService sends user notifications as fire-and-forget events.
type NotificationService interface {
	Send(ctx context.Context, req NotificationSendRequest) (*domain.Notification, error)
}

// NotificationSendRequest holds validated input for sending a notification.
type NotificationSendRequest struct {
	UserID  string
	Title   string
	Message string
	Channel domain.NotificationChannel
	SentBy  uuid.UUID
}

// AuditService records staff actions asynchronously.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
	List(ctx context.Context, params AuditListParams) ([]domain.AuditLog, int64, error)
}
