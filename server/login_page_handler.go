package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName       string
	Error         string
	Notice        string
	GoogleEnabled bool
	GoogleURL     string
}

var callbackErrorMessages = map[string]string{
	callbackErrOAuthDenied:   "Sign-in was cancelled.",
	callbackErrNoCode:        "The sign-in response was incomplete. Please try again.",
	callbackErrInvalidState:  "Your sign-in attempt expired or was already used. Please try again.",
	callbackErrTokenExchange: "We could not complete sign-in with the provider. Please try again.",
	callbackErrNoEmail:       "Your account did not share an email address.",
	callbackErrServer:        "Something went wrong. Please try again.",
}

// LoginPageUIHandler displays the login page (GET /login) that callback failures and logouts
// land on
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse login template")
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if loginTmpl == nil {
			http.Error(w, "Login page unavailable", http.StatusInternalServerError)
			return
		}

		provider, ok := s.providers[providerGoogle]
		data := LoginPageData{
			AppName:       s.config.GetAppName(),
			GoogleEnabled: ok && provider.Configured(),
			GoogleURL:     RouteAuthGoogle,
		}

		query := r.URL.Query()
		if code := query.Get("error"); code != "" {
			msg, known := callbackErrorMessages[code]
			if !known {
				msg = callbackErrorMessages[callbackErrServer]
			}
			data.Error = msg
		}
		switch {
		case query.Get("logged_out") == "true":
			data.Notice = "You have been signed out."
		case query.Get("timeout") != "":
			data.Notice = "You were signed out after a period of inactivity."
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := loginTmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render login page")
		}
	}
}
