package clientsession

import (
	"fmt"

	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
)

var (
	// ErrTimeout is returned when the API did not answer within the client's request timeout
	ErrTimeout = apperrors.ErrTimeout
	// ErrSessionExpired is returned when credentials were rejected and could not be refreshed.
	// The stored credentials have been cleared.
	ErrSessionExpired = apperrors.ErrSessionExpired
	// ErrNotAuthenticated is returned for authenticated calls made without stored credentials
	ErrNotAuthenticated = apperrors.ErrInvalidToken
)

// Codes the API attaches to login failures that have a remediation screen
const (
	CodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	CodePendingApproval  = "PENDING_APPROVAL"
)

// APIError is a non-2xx answer from the client API
type APIError struct {
	Status int
	Detail string
	Code   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// RemediationRoute returns the page a failed login should send the user to, or "" when the
// error should just be shown
func RemediationRoute(err error) string {
	var apiErr *APIError
	if !apperrors.As(err, &apiErr) {
		return ""
	}
	switch apiErr.Code {
	case CodePendingApproval:
		return RoutePendingApproval
	case CodeEmailNotVerified:
		return RouteVerifyEmail
	default:
		return ""
	}
}
