package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication & Tokens (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrMissingCredential() *AppError {
	return New("AUTH_002", "Authentication required", http.StatusUnauthorized)
}

// ErrInvalidToken is the uniform gate response for any token verification
// failure. The specific reason (AUTH_01x) is logged internally only.
func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAccountInactive() *AppError {
	return New("AUTH_004", "Account is deactivated", http.StatusForbidden)
}

func ErrForbiddenRole() *AppError {
	return New("AUTH_005", "Insufficient privileges", http.StatusForbidden)
}

func ErrTokenMalformed(err error) *AppError {
	return Wrap("AUTH_010", "Token is malformed", http.StatusUnauthorized, err)
}

func ErrTokenSignatureInvalid(err error) *AppError {
	return Wrap("AUTH_011", "Token signature is invalid", http.StatusUnauthorized, err)
}

func ErrTokenExpired(err error) *AppError {
	return Wrap("AUTH_012", "Token has expired", http.StatusUnauthorized, err)
}

// ---- Refund Workflow (REF) ----

func ErrInvalidRefundAmount() *AppError {
	return New("REF_001", "Refund amount exceeds transaction amount", http.StatusBadRequest)
}

func ErrTransactionNotRefundable() *AppError {
	return New("REF_002", "Transaction is not eligible for refund", http.StatusBadRequest)
}

func ErrRefundAlreadyProcessed() *AppError {
	return New("REF_003", "Refund has already been processed", http.StatusConflict)
}

// ---- Lookups (RES) ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
