package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Staff Repo ---

type inMemoryStaffRepo struct {
	mu    sync.RWMutex
	staff map[uuid.UUID]*domain.Staff
}

func newInMemoryStaffRepo() *inMemoryStaffRepo {
	return &inMemoryStaffRepo{staff: make(map[uuid.UUID]*domain.Staff)}
}

func (r *inMemoryStaffRepo) add(s *domain.Staff) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff[s.ID] = s
}

func (r *inMemoryStaffRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.staff[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (r *inMemoryStaffRepo) GetByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.staff {
		if s.Username == username {
			return s, nil
		}
	}
	return nil, nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[string]*domain.User)}
}

func (r *inMemoryUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *inMemoryUserRepo) List(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.User
	for _, u := range r.users {
		if params.Search != "" && !strings.Contains(u.Email, params.Search) && !strings.Contains(u.ID, params.Search) {
			continue
		}
		if params.Country != "" && u.Country != params.Country {
			continue
		}
		if params.VerificationStatus != nil && u.VerificationStatus != *params.VerificationStatus {
			continue
		}
		if params.Active != nil && u.Active != *params.Active {
			continue
		}
		result = append(result, *u)
	}
	return paginate(result, params.Page, params.PageSize)
}

func (r *inMemoryUserRepo) GetStats(ctx context.Context, since time.Time) (*ports.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.UserStats{}
	for _, u := range r.users {
		stats.Total++
		if u.Active {
			stats.Active++
		}
		if u.VerificationStatus == domain.UserVerificationVerified {
			stats.Verified++
		}
		if u.CreatedAt.After(since) {
			stats.Recent++
		}
	}
	return stats, nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[string]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) add(t *domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[t.ID] = t
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryTransactionRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.Status != domain.TransactionStatusCompleted {
		return false, nil
	}
	t.Status = domain.TransactionStatusRefunded
	t.UpdatedAt = now
	return true, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.UserID != "" && t.SenderID != params.UserID &&
			(t.ReceiverID == nil || *t.ReceiverID != params.UserID) {
			continue
		}
		result = append(result, *t)
	}
	return paginate(result, params.Page, params.PageSize)
}

func (r *inMemoryTransactionRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	return r.List(ctx, ports.TransactionListParams{UserID: userID, Page: page, PageSize: pageSize})
}

func (r *inMemoryTransactionRepo) GetStats(ctx context.Context, since time.Time) (*ports.TransactionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.TransactionStats{}
	for _, t := range r.transactions {
		stats.Total++
		switch t.Status {
		case domain.TransactionStatusCompleted:
			stats.Completed++
			stats.TotalVolume += t.Amount
			stats.TotalFees += t.Fees
		case domain.TransactionStatusPending:
			stats.Pending++
		case domain.TransactionStatusFailed:
			stats.Failed++
		case domain.TransactionStatusRefunded:
			stats.Refunded++
		}
		if t.CreatedAt.After(since) {
			stats.Recent++
		}
	}
	return stats, nil
}

func (r *inMemoryTransactionRepo) GetDailyVolume(ctx context.Context, from, to time.Time) ([]ports.DailyVolume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byDay := make(map[time.Time]*ports.DailyVolume)
	for _, t := range r.transactions {
		if t.CreatedAt.Before(from) || t.CreatedAt.After(to) {
			continue
		}
		day := t.CreatedAt.UTC().Truncate(24 * time.Hour)
		dv, ok := byDay[day]
		if !ok {
			dv = &ports.DailyVolume{Date: day}
			byDay[day] = dv
		}
		dv.Transactions++
		if t.Status == domain.TransactionStatusCompleted {
			dv.Volume += t.Amount
		}
	}
	result := make([]ports.DailyVolume, 0, len(byDay))
	for _, dv := range byDay {
		result = append(result, *dv)
	}
	return result, nil
}

// --- In-Memory Refund Repo ---

type inMemoryRefundRepo struct {
	mu      sync.RWMutex
	refunds map[uuid.UUID]*domain.Refund
}

func newInMemoryRefundRepo() *inMemoryRefundRepo {
	return &inMemoryRefundRepo{refunds: make(map[uuid.UUID]*domain.Refund)}
}

func (r *inMemoryRefundRepo) Create(ctx context.Context, refund *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *refund
	r.refunds[refund.ID] = &cp
	return nil
}

func (r *inMemoryRefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refund, ok := r.refunds[id]
	if !ok {
		return nil, nil
	}
	cp := *refund
	return &cp, nil
}

func (r *inMemoryRefundRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Refund, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryRefundRepo) SetDecision(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RefundStatus, processedBy uuid.UUID, processedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refund, ok := r.refunds[id]
	if !ok || refund.Status != domain.RefundStatusPending {
		return false, nil
	}
	refund.Status = status
	refund.ProcessedBy = &processedBy
	refund.ProcessedAt = &processedAt
	return true, nil
}

func (r *inMemoryRefundRepo) List(ctx context.Context, params ports.RefundListParams) ([]domain.Refund, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Refund
	for _, refund := range r.refunds {
		if params.Status != nil && refund.Status != *params.Status {
			continue
		}
		result = append(result, *refund)
	}
	return paginate(result, params.Page, params.PageSize)
}

func (r *inMemoryRefundRepo) GetStats(ctx context.Context) (*ports.RefundStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.RefundStats{}
	for _, refund := range r.refunds {
		stats.Total++
		if refund.Status == domain.RefundStatusPending {
			stats.Pending++
		}
	}
	return stats, nil
}

// --- In-Memory Notification Repo ---

type inMemoryNotificationRepo struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*domain.Notification
}

func newInMemoryNotificationRepo() *inMemoryNotificationRepo {
	return &inMemoryNotificationRepo{notifications: make(map[uuid.UUID]*domain.Notification)}
}

func (r *inMemoryNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notifications[n.ID] = &cp
	return nil
}

func (r *inMemoryNotificationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, sentAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return fmt.Errorf("notification not found")
	}
	n.Status = status
	n.SentAt = sentAt
	return nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryAuditRepo) List(ctx context.Context, params ports.AuditListParams) ([]domain.AuditLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AuditLog
	for _, e := range r.entries {
		if params.StaffID != nil && (e.StaffID == nil || *e.StaffID != *params.StaffID) {
			continue
		}
		if params.Action != nil && e.Action != *params.Action {
			continue
		}
		result = append(result, e)
	}
	return paginate(result, params.Page, params.PageSize)
}

// --- In-Memory Publisher ---

type inMemoryPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	Key     string
	Payload []byte
}

func newInMemoryPublisher() *inMemoryPublisher {
	return &inMemoryPublisher{}
}

func (p *inMemoryPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Key: key, Payload: payload})
	return nil
}

func (p *inMemoryPublisher) published() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex, mirroring
// what the row locks give the real decide path: concurrent decisions run one
// at a time, and the status guards decide the winner.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockedTx{release: &t.mu}, nil
}

// lockedTx holds the transactor mutex until Commit or Rollback. Both may be
// called (rollback is deferred in the service) so the unlock is once-only.
type lockedTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *lockedTx) done() {
	t.once.Do(t.release.Unlock)
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *lockedTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *lockedTx) Conn() *pgx.Conn                                               { return nil }

// --- helpers ---

func paginate[T any](items []T, page, pageSize int) ([]T, int64, error) {
	total := int64(len(items))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}, total, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}
