package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, sender_id, receiver_id, sender_name, receiver_name, amount, currency, fees,
		description, status, transaction_type, created_at, updated_at, completed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// GetByID fetches a transaction by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a transaction by ID with a row lock held for
// the duration of the enclosing database transaction.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1 FOR UPDATE`, transactionColumns)
	return r.scanTransaction(tx.QueryRow(ctx, query, id))
}

// MarkRefunded flips a completed transaction to refunded. The status guard
// makes the update conditional: zero rows affected means the row was not in
// completed state, and the caller decides what that implies.
func (r *TransactionRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, id string, now time.Time) (bool, error) {
	query := `UPDATE transactions SET status = 'refunded', updated_at = $1 WHERE id = $2 AND status = 'completed'`

	tag, err := tx.Exec(ctx, query, now, id)
	if err != nil {
		return false, fmt.Errorf("mark transaction refunded: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List fetches transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(id ILIKE $%d OR sender_name ILIKE $%d OR receiver_name ILIKE $%d OR sender_id ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("(sender_id = $%d OR receiver_id = $%d)", argIdx, argIdx))
		args = append(args, params.UserID)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows, total)
}

// ListByUser fetches the transaction history of one app user, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	countQuery := `SELECT COUNT(*) FROM transactions WHERE sender_id = $1 OR receiver_id = $1`
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, transactionColumns)

	rows, err := r.pool.Query(ctx, dataQuery, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user transactions: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows, total)
}

// GetStats retrieves aggregated transaction statistics.
func (r *TransactionRepo) GetStats(ctx context.Context, since time.Time) (*ports.TransactionStats, error) {
	query := `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'completed') AS completed,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'failed') AS failed,
		COUNT(*) FILTER (WHERE status = 'refunded') AS refunded,
		COUNT(*) FILTER (WHERE created_at >= $1) AS recent,
		COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0) AS volume,
		COALESCE(SUM(fees) FILTER (WHERE status = 'completed'), 0) AS fees
		FROM transactions`

	stats := &ports.TransactionStats{}
	err := r.pool.QueryRow(ctx, query, since).Scan(
		&stats.Total, &stats.Completed, &stats.Pending, &stats.Failed,
		&stats.Refunded, &stats.Recent, &stats.TotalVolume, &stats.TotalFees,
	)
	if err != nil {
		return nil, fmt.Errorf("get transaction stats: %w", err)
	}
	return stats, nil
}

// GetDailyVolume retrieves per-day counts and completed volume for the
// chart on the dashboard.
func (r *TransactionRepo) GetDailyVolume(ctx context.Context, from, to time.Time) ([]ports.DailyVolume, error) {
	query := `SELECT
		date_trunc('day', created_at) AS day,
		COUNT(*) AS transactions,
		COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0) AS volume
		FROM transactions
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY day ORDER BY day`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get daily volume: %w", err)
	}
	defer rows.Close()

	var points []ports.DailyVolume
	for rows.Next() {
		p := ports.DailyVolume{}
		if err := rows.Scan(&p.Date, &p.Transactions, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan daily volume row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily volume rows: %w", err)
	}
	return points, nil
}

// collectTransactions scans all rows into a slice.
func (r *TransactionRepo) collectTransactions(rows pgx.Rows, total int64) ([]domain.Transaction, int64, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.SenderID, &t.ReceiverID, &t.SenderName, &t.ReceiverName,
			&t.Amount, &t.Currency, &t.Fees, &t.Description, &t.Status, &t.Type,
			&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.SenderID, &t.ReceiverID, &t.SenderName, &t.ReceiverName,
		&t.Amount, &t.Currency, &t.Fees, &t.Description, &t.Status, &t.Type,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
