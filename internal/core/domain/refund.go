package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the lifecycle state of a refund request.
//
// approved is the terminal success state: approval and the ledger flip of the
// underlying transaction happen in one atomic step, so no separate completion
// transition exists. The completed value is kept for wire compatibility with
// older exports and is never set by this service.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusRejected  RefundStatus = "rejected"
	RefundStatusCompleted RefundStatus = "completed"
)

// RefundAction is a staff decision on a pending refund.
type RefundAction string

const (
	RefundActionApprove RefundAction = "approve"
	RefundActionReject  RefundAction = "reject"
)

// Refund is a staff-initiated request to reverse a completed transaction.
// Amount is in minor units and must not exceed the transaction amount.
// At most one refund per transaction ever reaches approved.
type Refund struct {
	ID            uuid.UUID    `json:"refund_id"`
	TransactionID string       `json:"transaction_id"`
	UserID        string       `json:"user_id"`
	Amount        int64        `json:"amount"`
	Reason        string       `json:"reason"`
	Status        RefundStatus `json:"status"`
	ProcessedBy   *uuid.UUID   `json:"processed_by,omitempty"` // Staff ID, nil until decided
	CreatedAt     time.Time    `json:"created_at"`
	ProcessedAt   *time.Time   `json:"processed_at,omitempty"`
}

// IsPending returns true if the refund still awaits a decision.
func (r *Refund) IsPending() bool {
	return r.Status == RefundStatusPending
}

// IsTerminal returns true once a decision has been recorded.
func (r *Refund) IsTerminal() bool {
	return r.Status != RefundStatusPending
}
