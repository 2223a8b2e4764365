package postgres

import (
	"context"
	"errors"
	"fmt"

	"moroccoin-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const staffColumns = `id, username, password_hash, email, first_name, last_name, role, is_active, created_at, updated_at`

// StaffRepo implements ports.StaffRepository against the admin_users table.
type StaffRepo struct {
	pool Pool
}

// NewStaffRepo creates a new StaffRepo.
func NewStaffRepo(pool Pool) *StaffRepo {
	return &StaffRepo{pool: pool}
}

// GetByID fetches a staff member by UUID.
func (r *StaffRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM admin_users WHERE id = $1`, staffColumns)
	return r.scanStaff(r.pool.QueryRow(ctx, query, id))
}

// GetByUsername fetches a staff member by username.
func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM admin_users WHERE username = $1`, staffColumns)
	return r.scanStaff(r.pool.QueryRow(ctx, query, username))
}

// scanStaff is a helper to scan a single row into a Staff.
func (r *StaffRepo) scanStaff(row pgx.Row) (*domain.Staff, error) {
	s := &domain.Staff{}
	err := row.Scan(
		&s.ID, &s.Username, &s.PasswordHash, &s.Email,
		&s.FirstName, &s.LastName, &s.Role, &s.Active,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	return s, nil
}
