package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const refundColumns = `id, transaction_id, user_id, amount, reason, status, processed_by, created_at, processed_at`

// RefundRepo implements ports.RefundRepository.
type RefundRepo struct {
	pool Pool
}

// NewRefundRepo creates a new RefundRepo.
func NewRefundRepo(pool Pool) *RefundRepo {
	return &RefundRepo{pool: pool}
}

// Create inserts a new pending refund.
func (r *RefundRepo) Create(ctx context.Context, refund *domain.Refund) error {
	query := `INSERT INTO refunds (id, transaction_id, user_id, amount, reason, status, processed_by, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		refund.ID, refund.TransactionID, refund.UserID,
		refund.Amount, refund.Reason, refund.Status,
		refund.ProcessedBy, refund.CreatedAt, refund.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

// GetByID fetches a refund by UUID.
func (r *RefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	query := fmt.Sprintf(`SELECT %s FROM refunds WHERE id = $1`, refundColumns)
	return r.scanRefund(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a refund with a row lock held for the duration
// of the enclosing database transaction. Locked before the transaction row.
func (r *RefundRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Refund, error) {
	query := fmt.Sprintf(`SELECT %s FROM refunds WHERE id = $1 FOR UPDATE`, refundColumns)
	return r.scanRefund(tx.QueryRow(ctx, query, id))
}

// SetDecision records a decision on a pending refund. The status guard
// makes the update conditional: zero rows affected means another decision
// already won.
func (r *RefundRepo) SetDecision(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RefundStatus, processedBy uuid.UUID, processedAt time.Time) (bool, error) {
	query := `UPDATE refunds SET status = $1, processed_by = $2, processed_at = $3 WHERE id = $4 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, status, processedBy, processedAt, id)
	if err != nil {
		return false, fmt.Errorf("set refund decision: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List fetches refunds with filtering and pagination, newest first.
func (r *RefundRepo) List(ctx context.Context, params ports.RefundListParams) ([]domain.Refund, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM refunds %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count refunds: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM refunds %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		refundColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		rf := domain.Refund{}
		err := rows.Scan(
			&rf.ID, &rf.TransactionID, &rf.UserID, &rf.Amount, &rf.Reason,
			&rf.Status, &rf.ProcessedBy, &rf.CreatedAt, &rf.ProcessedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan refund row: %w", err)
		}
		refunds = append(refunds, rf)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate refund rows: %w", err)
	}
	return refunds, total, nil
}

// GetStats retrieves refund counts for the dashboard.
func (r *RefundRepo) GetStats(ctx context.Context) (*ports.RefundStats, error) {
	query := `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending
		FROM refunds`

	stats := &ports.RefundStats{}
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.Pending); err != nil {
		return nil, fmt.Errorf("get refund stats: %w", err)
	}
	return stats, nil
}

// scanRefund is a helper to scan a single row into a Refund.
func (r *RefundRepo) scanRefund(row pgx.Row) (*domain.Refund, error) {
	rf := &domain.Refund{}
	err := row.Scan(
		&rf.ID, &rf.TransactionID, &rf.UserID, &rf.Amount, &rf.Reason,
		&rf.Status, &rf.ProcessedBy, &rf.CreatedAt, &rf.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan refund: %w", err)
	}
	return rf, nil
}
