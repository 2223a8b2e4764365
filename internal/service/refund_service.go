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

// RefundServiceImpl implements ports.RefundService.
//
// Decide runs in a single database transaction with a fixed lock order
// (refund row first, then transaction row) so two concurrent decisions
// on the same refund serialize instead of deadlocking.
type RefundServiceImpl struct {
	refundRepo ports.RefundRepository
	txnRepo    ports.TransactionRepository
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	logger     zerolog.Logger
}

// NewRefundService creates a new RefundServiceImpl.
func NewRefundService(
	refundRepo ports.RefundRepository,
	txnRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	logger zerolog.Logger,
) *RefundServiceImpl {
	return &RefundServiceImpl{
		refundRepo: refundRepo,
		txnRepo:    txnRepo,
		transactor: transactor,
		publisher:  publisher,
		logger:     logger,
	}
}

// Request opens a pending refund against a completed transaction.
func (s *RefundServiceImpl) Request(ctx context.Context, req ports.RefundRequest) (*domain.Refund, error) {
	txn, err := s.txnRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	if !txn.IsRefundable() {
		return nil, apperror.ErrTransactionNotRefundable()
	}

	if req.Amount <= 0 || req.Amount > txn.Amount {
		return nil, apperror.ErrInvalidRefundAmount()
	}

	refund := &domain.Refund{
		ID:            uuid.New(),
		TransactionID: txn.ID,
		UserID:        txn.SenderID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		Status:        domain.RefundStatusPending,
		CreatedAt:     time.Now(),
	}
	if req.UserID != "" {
		refund.UserID = req.UserID
	}

	if err := s.refundRepo.Create(ctx, refund); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.logger.Info().
		Str("refund_id", refund.ID.String()).
		Str("transaction_id", refund.TransactionID).
		Int64("amount", refund.Amount).
		Msg("refund requested")

	return refund, nil
}

// Decide applies an approve or reject decision to a pending refund.
//
// Approval also flips the underlying transaction from completed to
// refunded inside the same database transaction, so either both rows
// change or neither does. A refund that already left pending comes back
// as a conflict regardless of which decision won.
func (s *RefundServiceImpl) Decide(ctx context.Context, refundID uuid.UUID, action domain.RefundAction, actorID uuid.UUID) (*domain.Refund, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	refund, err := s.refundRepo.GetByIDForUpdate(ctx, tx, refundID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if refund == nil {
		return nil, apperror.ErrNotFound("refund")
	}

	if !refund.IsPending() {
		return nil, apperror.ErrRefundAlreadyProcessed()
	}

	now := time.Now()
	status := domain.RefundStatusRejected
	if action == domain.RefundActionApprove {
		status = domain.RefundStatusApproved

		txn, err := s.txnRepo.GetByIDForUpdate(ctx, tx, refund.TransactionID)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		if txn == nil {
			return nil, apperror.ErrNotFound("transaction")
		}

		applied, err := s.txnRepo.MarkRefunded(ctx, tx, txn.ID, now)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		if !applied {
			return nil, apperror.ErrTransactionNotRefundable()
		}
	}

	applied, err := s.refundRepo.SetDecision(ctx, tx, refund.ID, status, actorID, now)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !applied {
		return nil, apperror.ErrRefundAlreadyProcessed()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(err)
	}

	refund.Status = status
	refund.ProcessedBy = &actorID
	refund.ProcessedAt = &now

	s.logger.Info().
		Str("refund_id", refund.ID.String()).
		Str("transaction_id", refund.TransactionID).
		Str("decision", string(status)).
		Str("processed_by", actorID.String()).
		Msg("refund decided")

	s.publishDecision(refund)

	return refund, nil
}

// List returns refunds matching the given filter.
func (s *RefundServiceImpl) List(ctx context.Context, params ports.RefundListParams) ([]domain.Refund, int64, error) {
	refunds, total, err := s.refundRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return refunds, total, nil
}

// refundDecisionEvent is the broker payload emitted after a decision.
type refundDecisionEvent struct {
	Event         string `json:"event"`
	RefundID      string `json:"refund_id"`
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	ProcessedAt   string `json:"processed_at"`
}

// publishDecision emits the decision to the broker. Fire-and-forget:
// the financial state is already committed, a broker outage must not
// undo or block it.
func (s *RefundServiceImpl) publishDecision(refund *domain.Refund) {
	payload, err := json.Marshal(refundDecisionEvent{
		Event:         "refund.decided",
		RefundID:      refund.ID.String(),
		TransactionID: refund.TransactionID,
		UserID:        refund.UserID,
		Amount:        refund.Amount,
		Status:        string(refund.Status),
		ProcessedAt:   refund.ProcessedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("marshaling refund event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, refund.UserID, payload); err != nil {
		s.logger.Error().Err(err).
			Str("refund_id", refund.ID.String()).
			Msg("publishing refund event")
	}
}
