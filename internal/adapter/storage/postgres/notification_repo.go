package postgres

import (
	"context"
	"fmt"
	"time"

	"moroccoin-backoffice/internal/core/domain"

	"github.com/google/uuid"
)

// NotificationRepo implements ports.NotificationRepository.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create inserts a new notification record.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (id, user_id, title, message, channel, status, sent_by, created_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.UserID, n.Title, n.Message, n.Channel,
		n.Status, n.SentBy, n.CreatedAt, n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// UpdateStatus records the dispatch outcome of a notification.
func (r *NotificationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, sentAt *time.Time) error {
	query := `UPDATE notifications SET status = $1, sent_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, sentAt, id)
	if err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}
	return nil
}
