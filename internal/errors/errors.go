package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth service
var (
	// Configuration errors
	ErrNotConfigured = errors.New("not configured")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrPendingApproval    = errors.New("pending approval")
	ErrAccountRejected    = errors.New("account rejected")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidResetToken  = errors.New("invalid reset token")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrTokenIdle           = errors.New("token idle")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// OAuth errors
	ErrInvalidState  = errors.New("invalid state")
	ErrStateConsumed = errors.New("state already consumed")
	ErrNoEmail       = errors.New("provider returned no email")

	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidSession = errors.New("invalid session")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrTimeout        = errors.New("request timed out")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
