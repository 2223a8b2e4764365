package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/internal/core/ports/mocks"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type refundTestDeps struct {
	svc        *RefundServiceImpl
	refundRepo *mocks.MockRefundRepository
	txnRepo    *mocks.MockTransactionRepository
	transactor *mocks.MockDBTransactor
	publisher  *mocks.MockEventPublisher
	ctrl       *gomock.Controller
}

func setupRefundService(t *testing.T) *refundTestDeps {
	ctrl := gomock.NewController(t)
	d := &refundTestDeps{
		refundRepo: mocks.NewMockRefundRepository(ctrl),
		txnRepo:    mocks.NewMockTransactionRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		publisher:  mocks.NewMockEventPublisher(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewRefundService(d.refundRepo, d.txnRepo, d.transactor, d.publisher, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func completedTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:         "TXN-2024-0001",
		SenderID:   "USR-1001",
		SenderName: "Amina El Fassi",
		Amount:     150000,
		Currency:   "MAD",
		Status:     domain.TransactionStatusCompleted,
		Type:       domain.TransactionTypeSend,
	}
}

func pendingRefund(txnID string) *domain.Refund {
	return &domain.Refund{
		ID:            uuid.New(),
		TransactionID: txnID,
		UserID:        "USR-1001",
		Amount:        150000,
		Reason:        "duplicate transfer",
		Status:        domain.RefundStatusPending,
		CreatedAt:     time.Now(),
	}
}

// ==================== Request Tests ====================

func TestRefundService_Request_Success(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := completedTransaction()
	actor := uuid.New()

	d.txnRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)
	d.refundRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	refund, err := d.svc.Request(ctx, ports.RefundRequest{
		TransactionID: txn.ID,
		Amount:        100000,
		Reason:        "partial dispute",
		RequestedBy:   actor,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusPending, refund.Status)
	assert.Equal(t, txn.ID, refund.TransactionID)
	assert.Equal(t, txn.SenderID, refund.UserID, "user defaults to the transaction sender")
	assert.Equal(t, int64(100000), refund.Amount)
	assert.Nil(t, refund.ProcessedBy)
}

func TestRefundService_Request_TransactionNotFound(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txnRepo.EXPECT().GetByID(ctx, "TXN-MISSING").Return(nil, nil)

	_, err := d.svc.Request(ctx, ports.RefundRequest{TransactionID: "TXN-MISSING", Amount: 100})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestRefundService_Request_NotRefundable(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	for _, status := range []domain.TransactionStatus{
		domain.TransactionStatusPending,
		domain.TransactionStatusFailed,
		domain.TransactionStatusRefunded,
		domain.TransactionStatusCancelled,
	} {
		txn := completedTransaction()
		txn.Status = status

		d.txnRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)

		_, err := d.svc.Request(ctx, ports.RefundRequest{TransactionID: txn.ID, Amount: 100})
		require.Error(t, err, "status %s must not be refundable", status)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "REF_002", appErr.Code)
	}
}

func TestRefundService_Request_AmountExceedsTransaction(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := completedTransaction()

	d.txnRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)

	_, err := d.svc.Request(ctx, ports.RefundRequest{TransactionID: txn.ID, Amount: txn.Amount + 1})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REF_001", appErr.Code)
}

func TestRefundService_Request_NonPositiveAmount(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	for _, amount := range []int64{0, -500} {
		txn := completedTransaction()
		d.txnRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)

		_, err := d.svc.Request(ctx, ports.RefundRequest{TransactionID: txn.ID, Amount: amount})
		require.Error(t, err)

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "REF_001", appErr.Code)
	}
}

// ==================== Decide Tests ====================

func TestRefundService_Decide_Approve(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := completedTransaction()
	refund := pendingRefund(txn.ID)
	actor := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.refundRepo.EXPECT().GetByIDForUpdate(ctx, tx, refund.ID).Return(refund, nil)
	d.txnRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil)
	d.txnRepo.EXPECT().MarkRefunded(ctx, tx, txn.ID, gomock.Any()).Return(true, nil)
	d.refundRepo.EXPECT().SetDecision(ctx, tx, refund.ID, domain.RefundStatusApproved, actor, gomock.Any()).Return(true, nil)
	d.publisher.EXPECT().Publish(gomock.Any(), refund.UserID, gomock.Any()).Return(nil)

	got, err := d.svc.Decide(ctx, refund.ID, domain.RefundActionApprove, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusApproved, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, actor, *got.ProcessedBy)
	assert.NotNil(t, got.ProcessedAt)
}

func TestRefundService_Decide_Reject_LeavesTransactionUntouched(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	refund := pendingRefund("TXN-2024-0001")
	actor := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.refundRepo.EXPECT().GetByIDForUpdate(ctx, tx, refund.ID).Return(refund, nil)
	// No transaction lock, no MarkRefunded on reject.
	d.refundRepo.EXPECT().SetDecision(ctx, tx, refund.ID, domain.RefundStatusRejected, actor, gomock.Any()).Return(true, nil)
	d.publisher.EXPECT().Publish(gomock.Any(), refund.UserID, gomock.Any()).Return(nil)

	got, err := d.svc.Decide(ctx, refund.ID, domain.RefundActionReject, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusRejected, got.Status)
}

func TestRefundService_Decide_AlreadyProcessed(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	refund := pendingRefund("TXN-2024-0001")
	refund.Status = domain.RefundStatusApproved

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.refundRepo.EXPECT().GetByIDForUpdate(ctx, tx, refund.ID).Return(refund, nil)

	_, err := d.svc.Decide(ctx, refund.ID, domain.RefundActionApprove, uuid.New())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REF_003", appErr.Code)
}

func TestRefundService_Decide_NotFound(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	id := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.refundRepo.EXPECT().GetByIDForUpdate(ctx, tx, id).Return(nil, nil)

	_, err := d.svc.Decide(ctx, id, domain.RefundActionApprove, uuid.New())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestRefundService_Decide_TransactionGuardLost(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	txn := completedTransaction()
	refund := pendingRefund(txn.ID)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.refundRepo.EXPECT().GetByIDForUpdate(ctx, tx, refund.ID).Return(refund, nil)
	d.txnRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil)
	// Conditional update did not match: another refund already flipped the row.
	d.txnRepo.EXPECT().MarkRefunded(ctx, tx, txn.ID, gomock.Any()).Return(false, nil)

	_, err := d.svc.Decide(ctx, refund.ID, domain.RefundActionApprove, uuid.New())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REF_002", appErr.Code)
}

func TestRefundService_Decide_PublishFailureDoesNotFail(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	refund := pendingRefund("TXN-2024-0001")
	actor := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.refundRepo.EXPECT().GetByIDForUpdate(ctx, tx, refund.ID).Return(refund, nil)
	d.refundRepo.EXPECT().SetDecision(ctx, tx, refund.ID, domain.RefundStatusRejected, actor, gomock.Any()).Return(true, nil)
	d.publisher.EXPECT().Publish(gomock.Any(), refund.UserID, gomock.Any()).Return(errors.New("broker down"))

	got, err := d.svc.Decide(ctx, refund.ID, domain.RefundActionReject, actor)
	require.NoError(t, err, "broker outage must not undo a committed decision")
	assert.Equal(t, domain.RefundStatusRejected, got.Status)
}

// ==================== List Tests ====================

func TestRefundService_List(t *testing.T) {
	d := setupRefundService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	status := domain.RefundStatusPending
	params := ports.RefundListParams{Status: &status, Page: 1, PageSize: 20}
	expected := []domain.Refund{*pendingRefund("TXN-2024-0001")}

	d.refundRepo.EXPECT().List(ctx, params).Return(expected, int64(1), nil)

	got, total, err := d.svc.List(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, expected, got)
}
