package service

import (
	"context"
	"encoding/json"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/rs/zerolog"
)

// StatsCache caches rendered dashboard aggregates.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const (
	statsCacheKey = "dashboard:stats"
	statsCacheTTL = 30 * time.Second

	// recentWindow is the lookback used for the "last 24h" dashboard counters.
	recentWindow = 24 * time.Hour

	defaultChartDays = 7
	maxChartDays     = 90
)

// ReportingServiceImpl implements ports.ReportingService. All operations
// are read-only; the dashboard aggregate is served from a short-TTL cache
// so repeated loads do not hammer the ledger.
type ReportingServiceImpl struct {
	userRepo   ports.UserRepository
	txnRepo    ports.TransactionRepository
	refundRepo ports.RefundRepository
	cache      StatsCache
	currency   string
	logger     zerolog.Logger
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(
	userRepo ports.UserRepository,
	txnRepo ports.TransactionRepository,
	refundRepo ports.RefundRepository,
	cache StatsCache,
	currency string,
	logger zerolog.Logger,
) *ReportingServiceImpl {
	return &ReportingServiceImpl{
		userRepo:   userRepo,
		txnRepo:    txnRepo,
		refundRepo: refundRepo,
		cache:      cache,
		currency:   currency,
		logger:     logger,
	}
}

// ListTransactions returns ledger transactions matching the filter.
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txnRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

// GetTransaction returns a single transaction by ID.
func (s *ReportingServiceImpl) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// ListUserTransactions returns the transaction history of one app user.
func (s *ReportingServiceImpl) ListUserTransactions(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txnRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

// ListUsers returns app users matching the filter.
func (s *ReportingServiceImpl) ListUsers(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return users, total, nil
}

// GetUser returns a single app user by ID.
func (s *ReportingServiceImpl) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	return user, nil
}

// DashboardStats returns the aggregated landing-page numbers. A cache
// miss or a cache write failure falls through to the database; the cache
// never gates the read path.
func (s *ReportingServiceImpl) DashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	if cached, err := s.cache.Get(ctx, statsCacheKey); err == nil && cached != nil {
		var stats ports.DashboardStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	since := time.Now().Add(-recentWindow)

	userStats, err := s.userRepo.GetStats(ctx, since)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	txnStats, err := s.txnRepo.GetStats(ctx, since)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	refundStats, err := s.refundRepo.GetStats(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	stats := &ports.DashboardStats{
		Users:        *userStats,
		Transactions: *txnStats,
		Refunds:      *refundStats,
		Currency:     s.currency,
	}

	if payload, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, statsCacheKey, payload, statsCacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("caching dashboard stats")
		}
	}

	return stats, nil
}

// ChartData returns per-day transaction counts and completed volume for
// the last N days. Days outside [1, 90] fall back to the 7-day default.
func (s *ReportingServiceImpl) ChartData(ctx context.Context, days int) ([]ports.DailyVolume, error) {
	if days < 1 || days > maxChartDays {
		days = defaultChartDays
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	points, err := s.txnRepo.GetDailyVolume(ctx, from, to)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return points, nil
}
