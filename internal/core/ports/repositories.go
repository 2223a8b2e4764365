package ports

import (
	"context"
	"time"

	"moroccoin-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StaffRepository defines persistence operations for back-office staff.
type StaffRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error)
	GetByUsername(ctx context.Context, username string) (*domain.Staff, error)
}

// UserRepository is the read-only lookup into the app-user store owned by
// the money-movement subsystem. Lookups are fallible remote calls: a missing
// user is reported as (nil, nil), never assumed joinable.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
	GetStats(ctx context.Context, since time.Time) (*UserStats, error)
}

// UserListParams holds filter + pagination for listing users.
type UserListParams struct {
	Search             string // matches name, email, phone, user id
	Country            string
	VerificationStatus *domain.UserVerificationStatus
	Active             *bool
	Page               int
	PageSize           int
}

// UserStats holds aggregated user counts for the dashboard.
type UserStats struct {
	Total    int64
	Active   int64
	Verified int64
	Recent   int64 // created since the reporting window start
}

// TransactionRepository defines ledger access for transactions.
// Methods accepting pgx.Tx run inside a database transaction and are used
// by the refund workflow for row locking.
type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIDForUpdate locks the transaction row. Lock ordering: the refund
	// row must already be held before calling this (refund before transaction).
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Transaction, error)
	// MarkRefunded flips a completed transaction to refunded via a
	// conditional update. Returns false when the guard did not match
	// (already refunded or otherwise not completed), letting the caller
	// distinguish first application from an already-terminal row.
	MarkRefunded(ctx context.Context, tx pgx.Tx, id string, now time.Time) (bool, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, since time.Time) (*TransactionStats, error)
	GetDailyVolume(ctx context.Context, from, to time.Time) ([]DailyVolume, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	Search   string // matches transaction id, sender/receiver name, sender id
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	UserID   string // matches sender or receiver
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TransactionStats holds aggregated transaction statistics for the dashboard.
type TransactionStats struct {
	Total       int64
	Completed   int64
	Pending     int64
	Failed      int64
	Refunded    int64
	Recent      int64 // created since the reporting window start
	TotalVolume int64 // sum of completed amounts, minor units
	TotalFees   int64 // sum of completed fees, minor units
}

// DailyVolume is one day of chart data.
type DailyVolume struct {
	Date         time.Time
	Transactions int64
	Volume       int64 // completed amounts only, minor units
}

// RefundRepository defines persistence for refund requests.
type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	// GetByIDForUpdate locks the refund row for the duration of the
	// enclosing database transaction, serializing concurrent decisions.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Refund, error)
	// SetDecision transitions a refund out of pending via a conditional
	// update guarded by status = pending. Returns false when the refund
	// was no longer pending (decision already recorded).
	SetDecision(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RefundStatus, processedBy uuid.UUID, processedAt time.Time) (bool, error)
	List(ctx context.Context, params RefundListParams) ([]domain.Refund, int64, error)
	GetStats(ctx context.Context) (*RefundStats, error)
}

// RefundListParams holds filter + pagination for listing refunds.
type RefundListParams struct {
	Status   *domain.RefundStatus
	Page     int
	PageSize int
}

// RefundStats holds refund counts for the dashboard.
type RefundStats struct {
	Total   int64
	Pending int64
}

// NotificationRepository defines persistence for notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, sentAt *time.Time) error
}

// AuditRepository defines persistence for staff audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, params AuditListParams) ([]domain.AuditLog, int64, error)
}

// AuditListParams holds filter + pagination for listing audit entries.
type AuditListParams struct {
	StaffID  *uuid.UUID
	Action   *domain.AuditAction
	Page     int
	PageSize int
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
