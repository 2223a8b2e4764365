package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/internal/core/ports/mocks"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeStatsCache is an in-memory StatsCache for unit tests.
type fakeStatsCache struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
	gets int
	sets int
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{data: make(map[string][]byte)}
}

func (c *fakeStatsCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return nil, errors.New("cache unavailable")
	}
	return c.data[key], nil
}

func (c *fakeStatsCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.fail {
		return errors.New("cache unavailable")
	}
	c.data[key] = value
	return nil
}

type reportingTestDeps struct {
	svc        *ReportingServiceImpl
	userRepo   *mocks.MockUserRepository
	txnRepo    *mocks.MockTransactionRepository
	refundRepo *mocks.MockRefundRepository
	cache      *fakeStatsCache
	ctrl       *gomock.Controller
}

func setupReportingService(t *testing.T) *reportingTestDeps {
	ctrl := gomock.NewController(t)
	d := &reportingTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		txnRepo:    mocks.NewMockTransactionRepository(ctrl),
		refundRepo: mocks.NewMockRefundRepository(ctrl),
		cache:      newFakeStatsCache(),
		ctrl:       ctrl,
	}
	d.svc = NewReportingService(d.userRepo, d.txnRepo, d.refundRepo, d.cache, "MAD", zerolog.Nop())
	return d
}

func TestReportingService_GetTransaction(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := &domain.Transaction{ID: "TXN-2024-0001", Status: domain.TransactionStatusCompleted}

	d.txnRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)

	got, err := d.svc.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn, got)
}

func TestReportingService_GetTransaction_NotFound(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txnRepo.EXPECT().GetByID(ctx, "TXN-MISSING").Return(nil, nil)

	_, err := d.svc.GetTransaction(ctx, "TXN-MISSING")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestReportingService_GetUser_NotFound(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByID(ctx, "USR-MISSING").Return(nil, nil)

	_, err := d.svc.GetUser(ctx, "USR-MISSING")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestReportingService_DashboardStats_CacheMiss(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().GetStats(ctx, gomock.Any()).Return(&ports.UserStats{Total: 1200, Active: 1100, Verified: 900, Recent: 14}, nil)
	d.txnRepo.EXPECT().GetStats(ctx, gomock.Any()).Return(&ports.TransactionStats{Total: 5000, Completed: 4200, TotalVolume: 98765400}, nil)
	d.refundRepo.EXPECT().GetStats(ctx).Return(&ports.RefundStats{Total: 40, Pending: 7}, nil)

	stats, err := d.svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), stats.Users.Total)
	assert.Equal(t, int64(4200), stats.Transactions.Completed)
	assert.Equal(t, int64(7), stats.Refunds.Pending)
	assert.Equal(t, "MAD", stats.Currency)
	assert.Equal(t, 1, d.cache.sets, "result should be written to the cache")
}

func TestReportingService_DashboardStats_CacheHit(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	cached := &ports.DashboardStats{Currency: "MAD", Users: ports.UserStats{Total: 42}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	d.cache.data[statsCacheKey] = payload

	// No repository expectations: a cache hit must not touch the database.
	stats, err := d.svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Users.Total)
}

func TestReportingService_DashboardStats_CacheFailureFallsThrough(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.cache.fail = true

	d.userRepo.EXPECT().GetStats(ctx, gomock.Any()).Return(&ports.UserStats{Total: 10}, nil)
	d.txnRepo.EXPECT().GetStats(ctx, gomock.Any()).Return(&ports.TransactionStats{Total: 20}, nil)
	d.refundRepo.EXPECT().GetStats(ctx).Return(&ports.RefundStats{Total: 3}, nil)

	stats, err := d.svc.DashboardStats(ctx)
	require.NoError(t, err, "cache outage must not break the dashboard")
	assert.Equal(t, int64(10), stats.Users.Total)
}

func TestReportingService_ChartData_ClampsDays(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	for _, days := range []int{0, -5, 91} {
		d.txnRepo.EXPECT().
			GetDailyVolume(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, from, to time.Time) ([]ports.DailyVolume, error) {
				span := to.Sub(from)
				assert.InDelta(t, float64(7*24*time.Hour), float64(span), float64(time.Minute))
				return []ports.DailyVolume{}, nil
			})

		_, err := d.svc.ChartData(ctx, days)
		require.NoError(t, err)
	}
}

func TestReportingService_ListTransactions(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	status := domain.TransactionStatusCompleted
	params := ports.TransactionListParams{Status: &status, Page: 2, PageSize: 50}
	expected := []domain.Transaction{{ID: "TXN-2024-0001"}}

	d.txnRepo.EXPECT().List(ctx, params).Return(expected, int64(73), nil)

	got, total, err := d.svc.ListTransactions(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(73), total)
	assert.Equal(t, expected, got)
}
