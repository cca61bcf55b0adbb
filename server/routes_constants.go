package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Login page that provider callbacks and logouts land on
	RouteLogin = "/login"

	// Provider login (browser session)
	RouteAuthGoogle   = "/auth/google"
	RouteAuthCallback = "/auth/callback"
	RouteAuthMe       = "/auth/me"
	RouteAuthLogout   = "/auth/logout"

	// Client API (bearer tokens)
	RouteClientAuthLogin          = "/api/client/auth/login"
	RouteClientAuthRegister       = "/api/client/auth/register"
	RouteClientAuthVerifyEmail    = "/api/client/auth/verify-email"
	RouteClientAuthResendCode     = "/api/client/auth/resend-code"
	RouteClientAuthForgotPassword = "/api/client/auth/forgot-password"
	RouteClientAuthResetPassword  = "/api/client/auth/reset-password"
	RouteClientAuthRefresh        = "/api/client/auth/refresh"
	RouteClientAuthGoogle         = "/api/client/auth/google"
	RouteClientAuthLinkedIn       = "/api/client/auth/linkedin"
	RouteClientAuthLogout         = "/api/client/auth/logout"
	RouteClientAuthMe             = "/api/client/auth/me"

	RouteHealth = "/healthz"
)

const (
	providerGoogle   = "google"
	providerLinkedIn = "linkedin"
)

// Machine readable callback failure codes, sent as /login?error=<code>
const (
	callbackErrOAuthDenied   = "oauth_denied"
	callbackErrNoCode        = "no_code"
	callbackErrInvalidState  = "invalid_state"
	callbackErrTokenExchange = "token_exchange"
	callbackErrNoEmail       = "no_email"
	callbackErrServer        = "server_error"
)
