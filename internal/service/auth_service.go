package service

import (
	"context"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	staffRepo ports.StaffRepository
	hashSvc   ports.HashService
	tokenSvc  ports.TokenService
	logger    zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	staffRepo ports.StaffRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	logger zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		staffRepo: staffRepo,
		hashSvc:   hashSvc,
		tokenSvc:  tokenSvc,
		logger:    logger,
	}
}

// Login authenticates a staff member and issues a session token.
// Unknown username and wrong password produce the same error so the
// response does not leak which usernames exist.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	staff, err := s.staffRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if staff == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	match, err := s.hashSvc.Verify(password, staff.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !match {
		return nil, apperror.ErrInvalidCredentials()
	}

	if !staff.CanLogin() {
		return nil, apperror.ErrAccountInactive()
	}

	token, expiresAt, err := s.tokenSvc.Issue(staff)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	s.logger.Info().
		Str("staff_id", staff.ID.String()).
		Str("username", staff.Username).
		Str("role", string(staff.Role)).
		Msg("staff login")

	return &ports.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Staff:     staff,
	}, nil
}

// GetProfile returns the staff record for an authenticated session.
func (s *AuthServiceImpl) GetProfile(ctx context.Context, staffID uuid.UUID) (*domain.Staff, error) {
	staff, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if staff == nil {
		return nil, apperror.ErrNotFound("staff")
	}
	return staff, nil
}
