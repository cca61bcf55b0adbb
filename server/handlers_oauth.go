package server

import (
	"net/http"

	"github.com/jrsteele09/portal-auth/oauthstate"
	"github.com/jrsteele09/portal-auth/sessions"
	"github.com/rs/zerolog/log"
)

type sessionUser struct {
	ProviderID string `json:"providerId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
}

type sessionMeResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *sessionUser `json:"user,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// GoogleLoginHandler starts the provider login: a fresh state value goes into a sealed
// short-lived cookie and the browser is sent to the provider's consent screen.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := s.providers[providerGoogle]
		if !ok || !provider.Configured() {
			log.Error().Str("provider", providerGoogle).Msg("provider client id is not configured")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Google OAuth not configured"})
			return
		}

		state, err := oauthstate.Generate()
		if err != nil {
			log.Error().Err(err).Msg("failed to generate oauth state")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}

		s.SetStateCookie(w, s.stateSealer.Seal(state))
		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
	}
}

// SessionMeHandler reports who the session cookie belongs to. It is a pure read.
func (s *Server) SessionMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var value string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			value = cookie.Value
		}

		result := s.verifier.Verify(value)
		if !result.Authenticated {
			writeJSON(w, http.StatusUnauthorized, sessionMeResponse{Error: result.Reason})
			return
		}
		writeJSON(w, http.StatusOK, sessionMeResponse{
			Authenticated: true,
			User:          toSessionUser(result.Session),
		})
	}
}

// SessionLogoutHandler clears the session cookie with the attributes it was set with
func (s *Server) SessionLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.ClearSessionCookie(w)
		if acceptsJSON(r) {
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
		http.Redirect(w, r, RouteLogin+"?logged_out=true", http.StatusFound)
	}
}

func toSessionUser(sess sessions.Session) *sessionUser {
	return &sessionUser{
		ProviderID: sess.ProviderID,
		Email:      sess.Email,
		Name:       sess.Name,
		Picture:    sess.Picture,
	}
}
