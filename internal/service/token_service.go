package service

import (
	"errors"
	"fmt"
	"time"

	"moroccoin-backoffice/internal/core/domain"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenService implements ports.TokenService using HS256 JWT.
// Tokens are self-contained: Verify checks signature and expiry only,
// there is no server-side session store.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Issue creates a signed JWT for the given staff member.
func (s *JWTTokenService) Issue(staff *domain.Staff) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := jwt.MapClaims{
		"sub":      staff.ID.String(),
		"username": staff.Username,
		"role":     string(staff.Role),
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
		"iss":      s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Verify parses and validates a JWT, returning the staff identity it carries.
// Expired and forged tokens come back as distinct apperror codes so the
// auth middleware can log the exact reason while responding uniformly.
func (s *JWTTokenService) Verify(tokenString string) (*ports.StaffClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperror.ErrTokenExpired(err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, apperror.ErrTokenSignatureInvalid(err)
		default:
			return nil, apperror.ErrTokenMalformed(err)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.ErrTokenMalformed(fmt.Errorf("invalid token claims"))
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, apperror.ErrTokenMalformed(fmt.Errorf("missing subject claim"))
	}

	staffID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperror.ErrTokenMalformed(fmt.Errorf("invalid staff ID in token: %w", err))
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return &ports.StaffClaims{
		StaffID:  staffID,
		Username: username,
		Role:     domain.StaffRole(role),
	}, nil
}
