package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// sessionCookieName carries the browser session minted by the provider callback
	sessionCookieName = "session"
	// stateCookieName carries the sealed anti-forgery state between /auth/google and the callback
	stateCookieName = "oauth_state"

	contentTypeJSON = "application/json; charset=utf-8"
)

// sessionCookie is the single template for the session cookie. Setting and clearing must
// use identical attributes or browsers keep the old cookie.
func (s *Server) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   s.config.GetCookieDomain(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) SetSessionCookie(w http.ResponseWriter, value string, lifetime time.Duration) {
	http.SetCookie(w, s.sessionCookie(value, int(lifetime.Seconds())))
}

func (s *Server) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.sessionCookie("", -1))
}

func (s *Server) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) SetStateCookie(w http.ResponseWriter, sealedState string) {
	http.SetCookie(w, s.stateCookie(sealedState, int(s.config.GetStateTTL().Seconds())))
}

func (s *Server) ClearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.stateCookie("", -1))
}

// redirectToLogin ends a failed provider login on the login page with a machine readable code
func redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, RouteLogin+"?error="+url.QueryEscape(errorCode), http.StatusFound)
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// bearerToken returns the token from an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}
