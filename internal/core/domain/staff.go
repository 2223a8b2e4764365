package domain

import (
	"time"

	"github.com/google/uuid"
)

// StaffRole determines what back-office operations a staff member may perform.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "admin"
	StaffRoleSupport StaffRole = "support"
)

// Staff is a back-office principal (admin or support agent).
// Accounts are never deleted, only deactivated.
type Staff struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         StaffRole `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanLogin returns true if the account may authenticate.
func (s *Staff) CanLogin() bool {
	return s.Active
}

// IsAdmin returns true for the admin role.
func (s *Staff) IsAdmin() bool {
	return s.Role == StaffRoleAdmin
}
