package postgres

import (
	"context"
	"testing"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:                 "USR-1001",
		Email:              "amina@example.ma",
		Phone:              "+212600000001",
		FirstName:          "Amina",
		LastName:           "El Fassi",
		Country:            "MA",
		VerificationStatus: domain.UserVerificationVerified,
		Balance:            250000,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func userCols() []string {
	return []string{"id", "email", "phone", "first_name", "last_name", "country", "verification_status",
		"balance", "is_active", "created_at", "updated_at", "last_login"}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userCols()).AddRow(
		u.ID, u.Email, u.Phone, u.FirstName, u.LastName, u.Country,
		u.VerificationStatus, u.Balance, u.Active, u.CreatedAt, u.UpdatedAt, u.LastLogin,
	)
}

func TestUserRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	user := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs(user.ID).
		WillReturnRows(userRow(user))

	result, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.ID)
	assert.Equal(t, int64(250000), result.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs("USR-MISSING").
		WillReturnRows(pgxmock.NewRows(userCols()))

	result, err := repo.GetByID(context.Background(), "USR-MISSING")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List_SearchAndFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	user := newTestUser()
	verified := domain.UserVerificationVerified

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users").
		WithArgs("%amina%", verified).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM users WHERE").
		WithArgs("%amina%", verified, 20, 0).
		WillReturnRows(userRow(user))

	params := ports.UserListParams{Search: "amina", VerificationStatus: &verified, Page: 1, PageSize: 20}
	users, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, user.Email, users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery("SELECT").
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"total", "active", "verified", "recent"}).
			AddRow(int64(1200), int64(1100), int64(900), int64(14)))

	stats, err := repo.GetStats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), stats.Total)
	assert.Equal(t, int64(900), stats.Verified)
	assert.NoError(t, mock.ExpectationsWereMet())
}
