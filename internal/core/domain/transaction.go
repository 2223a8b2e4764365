package domain

import (
	"time"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeSend       TransactionType = "send"
	TransactionTypeReceive    TransactionType = "receive"
	TransactionTypeTopup      TransactionType = "topup"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is an append-only ledger entry for money movement in the
// Moroccoin app. The back office never creates transactions; it only reads
// them and, through refund approval, flips completed ones to refunded.
// Amount and Fees are in minor units (centimes).
type Transaction struct {
	ID           string            `json:"transaction_id"`
	SenderID     string            `json:"sender_id"`
	ReceiverID   *string           `json:"receiver_id,omitempty"`
	SenderName   string            `json:"sender_name"`
	ReceiverName string            `json:"receiver_name"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Fees         int64             `json:"fees"`
	Description  string            `json:"description,omitempty"`
	Status       TransactionStatus `json:"status"`
	Type         TransactionType   `json:"transaction_type"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// IsRefundable returns true if a refund may be opened against this
// transaction. Only completed transactions qualify; refunded is terminal.
func (t *Transaction) IsRefundable() bool {
	return t.Status == TransactionStatusCompleted
}

// IsTerminal returns true if no further status transition is permitted.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusRefunded, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}
