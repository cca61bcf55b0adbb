package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/jrsteele09/portal-auth/sessions"
	"github.com/rs/zerolog/log"
)

// OAuthCallbackHandler completes the provider login. Every outcome is a redirect: to the
// landing page with a session cookie, or to the login page with an error code. All local
// checks run before the provider is contacted.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Msg("oauth callback panicked")
				redirectToLogin(w, r, callbackErrServer)
			}
		}()

		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			log.Info().Str("provider_error", providerErr).Msg("provider reported an authorization error")
			redirectToLogin(w, r, callbackErrOAuthDenied)
			return
		}
		code := query.Get("code")
		if code == "" {
			redirectToLogin(w, r, callbackErrNoCode)
			return
		}
		if !s.checkState(r, query.Get("state")) {
			redirectToLogin(w, r, callbackErrInvalidState)
			return
		}
		s.ClearStateCookie(w)

		provider, ok := s.providers[providerGoogle]
		if !ok || !provider.Configured() {
			log.Error().Str("provider", providerGoogle).Msg("callback reached with provider not configured")
			redirectToLogin(w, r, callbackErrServer)
			return
		}

		tok, err := provider.Exchange(r.Context(), code, "")
		if err != nil {
			log.Error().Err(err).Str("provider", provider.Name()).Msg("token exchange failed")
			redirectToLogin(w, r, callbackErrTokenExchange)
			return
		}
		profile, err := provider.Profile(r.Context(), tok)
		if err != nil {
			log.Error().Err(err).Str("provider", provider.Name()).Msg("profile fetch failed")
			redirectToLogin(w, r, callbackErrServer)
			return
		}
		if profile.Email == "" {
			redirectToLogin(w, r, callbackErrNoEmail)
			return
		}

		lifetime := s.config.GetSessionLifetime()
		sess := sessions.New(profile.ProviderID, profile.Email, profile.Name, profile.Picture, s.nowFunc(), lifetime)
		value, err := s.codec.Encode(sess)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode session")
			redirectToLogin(w, r, callbackErrServer)
			return
		}

		s.SetSessionCookie(w, value, lifetime)
		log.Info().Str("email", profile.Email).Msg("provider login succeeded")
		http.Redirect(w, r, s.config.GetLandingPath(), http.StatusFound)
	}
}

// checkState accepts the returned state only when it matches the sealed cookie exactly and
// has not been presented to the callback before
func (s *Server) checkState(r *http.Request, returned string) bool {
	if returned == "" {
		return false
	}
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	stored, err := s.stateSealer.Open(cookie.Value)
	if err != nil {
		log.Warn().Err(err).Msg("state cookie failed to open")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(returned)) != 1 {
		return false
	}
	if err := s.stateRegistry.Consume(stored); err != nil {
		log.Warn().Err(err).Msg("state replayed")
		return false
	}
	return true
}
