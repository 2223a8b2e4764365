package domain

import "time"

// UserVerificationStatus is the KYC state of an app user.
type UserVerificationStatus string

const (
	UserVerificationPending  UserVerificationStatus = "pending"
	UserVerificationVerified UserVerificationStatus = "verified"
	UserVerificationRejected UserVerificationStatus = "rejected"
)

// User is a Moroccoin app user. The back office does not own this entity;
// it is read through an injected lookup and used for display enrichment
// only, never for authorization decisions. Balance is in minor units.
type User struct {
	ID                 string                 `json:"user_id"`
	Email              string                 `json:"email"`
	Phone              string                 `json:"phone"`
	FirstName          string                 `json:"first_name"`
	LastName           string                 `json:"last_name"`
	Country            string                 `json:"country"`
	VerificationStatus UserVerificationStatus `json:"verification_status"`
	Balance            int64                  `json:"balance"`
	Active             bool                   `json:"is_active"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	LastLogin          *time.Time             `json:"last_login,omitempty"`
}

// FullName returns the display name used in transaction listings.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
