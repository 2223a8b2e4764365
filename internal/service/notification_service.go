package service

import (
	"context"
	"encoding/json"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NotificationServiceImpl implements ports.NotificationService.
//
// Send persists a pending record, hands the event to the broker, and
// records sent or failed depending on the publish outcome. The record is
// returned either way: delivery is best effort and the caller gets the
// final status, not an error.
type NotificationServiceImpl struct {
	notifRepo ports.NotificationRepository
	userRepo  ports.UserRepository
	publisher ports.EventPublisher
	logger    zerolog.Logger
}

// NewNotificationService creates a new NotificationServiceImpl.
func NewNotificationService(
	notifRepo ports.NotificationRepository,
	userRepo ports.UserRepository,
	publisher ports.EventPublisher,
	logger zerolog.Logger,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// notificationEvent is the broker payload for a staff-sent notification.
type notificationEvent struct {
	Event   string `json:"event"`
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Channel string `json:"channel"`
}

// Send dispatches a notification to an app user.
func (s *NotificationServiceImpl) Send(ctx context.Context, req ports.NotificationSendRequest) (*domain.Notification, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		Channel:   req.Channel,
		Status:    domain.NotificationStatusPending,
		SentBy:    req.SentBy,
		CreatedAt: time.Now(),
	}

	if err := s.notifRepo.Create(ctx, n); err != nil {
		return nil, apperror.InternalError(err)
	}

	payload, err := json.Marshal(notificationEvent{
		Event:   "notification.send",
		ID:      n.ID.String(),
		UserID:  n.UserID,
		Title:   n.Title,
		Message: n.Message,
		Channel: string(n.Channel),
	})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	if err := s.publisher.Publish(ctx, n.UserID, payload); err != nil {
		s.logger.Error().Err(err).
			Str("notification_id", n.ID.String()).
			Msg("publishing notification")

		n.Status = domain.NotificationStatusFailed
		if uerr := s.notifRepo.UpdateStatus(ctx, n.ID, n.Status, nil); uerr != nil {
			s.logger.Error().Err(uerr).Msg("marking notification failed")
		}
		return n, nil
	}

	now := time.Now()
	n.Status = domain.NotificationStatusSent
	n.SentAt = &now
	if err := s.notifRepo.UpdateStatus(ctx, n.ID, n.Status, &now); err != nil {
		s.logger.Error().Err(err).Msg("marking notification sent")
	}

	return n, nil
}
