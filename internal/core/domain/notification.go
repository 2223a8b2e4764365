package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel is the delivery channel for a user notification.
type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelPush  NotificationChannel = "push"
	NotificationChannelInApp NotificationChannel = "in_app"
)

// NotificationStatus tracks dispatch of a notification event.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a message a staff member sends to an app user.
// Dispatch is fire-and-forget: the record is persisted here and the event
// published to the broker; actual SMS/email delivery happens downstream.
type Notification struct {
	ID        uuid.UUID           `json:"notification_id"`
	UserID    string              `json:"user_id"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Channel   NotificationChannel `json:"notification_type"`
	Status    NotificationStatus  `json:"status"`
	SentBy    uuid.UUID           `json:"sent_by"` // Staff ID
	CreatedAt time.Time           `json:"created_at"`
	SentAt    *time.Time          `json:"sent_at,omitempty"`
}
