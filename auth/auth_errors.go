package auth

import (
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
)

// Machine readable codes for the failure states a client routes on
const (
	CodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	CodePendingApproval  = "PENDING_APPROVAL"
)

// CodedError is an authentication failure the HTTP layer can render as {detail, code?}.
// Detail never says which credential field was wrong.
type CodedError struct {
	Status int
	Detail string
	Code   string
	Err    error
}

func (e *CodedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %v", e.Detail, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Detail, e.Err)
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

func coded(status int, detail, code string, err error) *CodedError {
	return &CodedError{Status: status, Detail: detail, Code: code, Err: err}
}

var (
	errInvalidCredentials      = coded(http.StatusUnauthorized, "Invalid email or password", "", apperrors.ErrInvalidCredentials)
	errEmailNotVerified        = coded(http.StatusForbidden, "Please verify your email address before logging in", CodeEmailNotVerified, apperrors.ErrEmailNotVerified)
	errPendingApproval         = coded(http.StatusForbidden, "Your account is awaiting approval", CodePendingApproval, apperrors.ErrPendingApproval)
	errAccountRejected         = coded(http.StatusForbidden, "Account access has been denied", "", apperrors.ErrAccountRejected)
	errInvalidRefresh          = coded(http.StatusUnauthorized, "Invalid or expired refresh token", "", apperrors.ErrInvalidRefreshToken)
	errInvalidCode             = coded(http.StatusBadRequest, "Invalid or expired verification code", "", apperrors.ErrInvalidCode)
	errInvalidResetToken       = coded(http.StatusBadRequest, "Invalid or expired reset token", "", apperrors.ErrInvalidResetToken)
	errUserExists              = coded(http.StatusConflict, "An account with this email already exists", "", apperrors.ErrUserExists)
	errSocialLogin             = coded(http.StatusBadRequest, "Social login failed", "", apperrors.ErrInvalidRequest)
	errUnverifiedProviderEmail = coded(http.StatusForbidden, "Your provider account's email address is not verified", "", apperrors.ErrEmailNotVerified)
	errNoEmail                 = coded(http.StatusBadRequest, "Provider did not return an email address", "", apperrors.ErrNoEmail)
	errInternal                = coded(http.StatusInternalServerError, "Internal server error", "", apperrors.ErrInternal)
)

func errInvalidRequest(detail string) *CodedError {
	return coded(http.StatusBadRequest, detail, "", apperrors.ErrInvalidRequest)
}

func errProviderNotConfigured(name string) *CodedError {
	return coded(http.StatusInternalServerError, name+" OAuth not configured", "", apperrors.ErrNotConfigured)
}
