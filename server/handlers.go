package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/portal-auth/auth"
	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
	"github.com/jrsteele09/portal-auth/token"
	"github.com/jrsteele09/portal-auth/users"
	"github.com/rs/zerolog/log"
)

// errorResponse is the client API failure body; Code is set only for the states a client
// routes on (EMAIL_NOT_VERIFIED, PENDING_APPROVAL)
type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

type messageResponse struct {
	Message string         `json:"message"`
	User    *users.Profile `json:"user,omitempty"`
}

type tokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *users.Profile `json:"user,omitempty"`
}

func newTokenResponse(pair *token.Pair, user *users.Profile) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		User:         user,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type socialLoginRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

func (s *Server) ClientLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		res, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTokenResponse(res.Tokens, &res.User))
	}
}

func (s *Server) ClientRegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}

		profile, err := s.auth.Register(r.Context(), auth.RegisterRequest{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Company:  req.Company,
		})
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, messageResponse{
			Message: "Registration successful. Check your email for a verification code.",
			User:    profile,
		})
	}
}

func (s *Server) ClientVerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyEmailRequest
		if !decodeBody(w, r, &req) {
			return
		}

		profile, err := s.auth.VerifyEmail(r.Context(), req.Email, req.Code)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{
			Message: "Email verified. Your account is awaiting approval.",
			User:    profile,
		})
	}
}

func (s *Server) ClientResendCodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.auth.ResendCode(r.Context(), req.Email); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{
			Message: "If the account is awaiting verification, a new code has been sent.",
		})
	}
}

func (s *Server) ClientForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{
			Message: "If an account exists for that email, a reset link has been sent.",
		})
	}
}

func (s *Server) ClientResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset."})
	}
}

func (s *Server) ClientRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeBody(w, r, &req) {
			return
		}

		pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTokenResponse(pair, nil))
	}
}

// ClientSocialLoginHandler logs in with an authorization code obtained by the client from
// the named provider
func (s *Server) ClientSocialLoginHandler(providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req socialLoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := s.auth.SocialLogin(r.Context(), providerName, req.Code, req.RedirectURI)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTokenResponse(res.Tokens, &res.User))
	}
}

// ClientLogoutHandler revokes the refresh token in the body and the bearer token, if any.
// It succeeds whether or not the tokens were still valid.
func (s *Server) ClientLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}
		accessToken, _ := bearerToken(r)
		s.auth.Logout(r.Context(), accessToken, req.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) ClientMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			writeAuthRequired(w)
			return
		}

		profile, err := s.auth.Me(r.Context(), userID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUserNotFound) {
				writeAuthRequired(w)
				return
			}
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]*users.Profile{"user": profile})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints where the body may be absent
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !apperrors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeAuthError renders a CodedError as {detail, code?}; anything else is logged and
// reported as an opaque 500
func writeAuthError(w http.ResponseWriter, err error) {
	var coded *auth.CodedError
	if apperrors.As(err, &coded) {
		writeJSON(w, coded.Status, errorResponse{Detail: coded.Detail, Code: coded.Code})
		return
	}
	log.Error().Err(err).Msg("client auth request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
