package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteFunc("GET "+RouteLogin, s.LoginPageUIHandler())

	// Provider login with a browser session cookie
	s.RegisterRouteFunc("GET "+RouteAuthGoogle, s.GoogleLoginHandler())
	s.RegisterRouteFunc("GET "+RouteAuthCallback, s.OAuthCallbackHandler())
	s.RegisterRouteFunc("GET "+RouteAuthMe, s.SessionMeHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogout, s.SessionLogoutHandler())

	// Client API
	s.RegisterRouteHandler("POST "+RouteClientAuthLogin, ChainMiddleware(s.ClientLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthRegister, ChainMiddleware(s.ClientRegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthVerifyEmail, ChainMiddleware(s.ClientVerifyEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthResendCode, ChainMiddleware(s.ClientResendCodeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthForgotPassword, ChainMiddleware(s.ClientForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthResetPassword, ChainMiddleware(s.ClientResetPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthRefresh, ChainMiddleware(s.ClientRefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthGoogle, ChainMiddleware(s.ClientSocialLoginHandler(providerGoogle), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthLinkedIn, ChainMiddleware(s.ClientSocialLoginHandler(providerLinkedIn), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteClientAuthLogout, ChainMiddleware(s.ClientLogoutHandler(), s.APIMiddleware()...))

	// Protected client API routes
	s.RegisterRouteHandler("GET "+RouteClientAuthMe, ChainMiddleware(s.ClientMeHandler(), s.APIMiddleware(s.RequireBearer())...))
}

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
