package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/portal-auth/identity/identityfake"
	"github.com/jrsteele09/portal-auth/server"
	"github.com/jrsteele09/portal-auth/users"
	"github.com/stretchr/testify/require"
)

type tokenBody struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *users.Profile `json:"user"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func (ts *testServer) login(t *testing.T, email string) tokenBody {
	t.Helper()
	rec := ts.postJSON(t, server.RouteClientAuthLogin, map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[tokenBody](t, rec)
}

func (ts *testServer) me(t *testing.T, accessToken string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, server.RouteClientAuthMe, nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return ts.do(t, req)
}

func TestClientLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada@example.com", users.StatusActive)

	tokens := ts.login(t, "ada@example.com")
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "bearer", tokens.TokenType)
	require.Equal(t, int64(900), tokens.ExpiresIn)
	require.Equal(t, "ada@example.com", tokens.User.Email)

	rec := ts.me(t, tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	me := decode[map[string]users.Profile](t, rec)
	require.Equal(t, tokens.User.ID, me["user"].ID)
}

func TestClientLogin_Failures(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "active@example.com", users.StatusActive)
	ts.addUser(t, "approval@example.com", users.StatusPendingApproval)
	ts.addUser(t, "verify@example.com", users.StatusPendingVerification)
	ts.addUser(t, "rejected@example.com", users.StatusRejected)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		detail   string
		code     string
	}{
		{"wrong password", "active@example.com", "Wrong1234", http.StatusUnauthorized, "Invalid email or password", ""},
		{"unknown email", "nobody@example.com", testPassword, http.StatusUnauthorized, "Invalid email or password", ""},
		{"pending approval", "approval@example.com", testPassword, http.StatusForbidden, "Your account is awaiting approval", "PENDING_APPROVAL"},
		{"pending verification", "verify@example.com", testPassword, http.StatusForbidden, "", "EMAIL_NOT_VERIFIED"},
		{"rejected", "rejected@example.com", testPassword, http.StatusForbidden, "Account access has been denied", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.postJSON(t, server.RouteClientAuthLogin, map[string]string{"email": tt.email, "password": tt.password})
			require.Equal(t, tt.status, rec.Code)

			eb := decode[errorBody](t, rec)
			require.Equal(t, tt.code, eb.Code)
			if tt.detail != "" {
				require.Equal(t, tt.detail, eb.Detail)
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, server.RouteClientAuthLogin, nil)
		rec := ts.do(t, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRequireBearer_RejectsWithoutRunningHandler(t *testing.T) {
	ts := newTestServer(t)

	ran := false
	protected := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		w.WriteHeader(http.StatusOK)
	}, ts.RequireBearer())

	for _, header := range []string{"", "Bearer garbage", "Basic dXNlcjpwYXNz", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		protected(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
		require.JSONEq(t, `{"success":false,"message":"Authentication required"}`, rec.Body.String())
	}
	require.False(t, ran)
}

func TestRequireBearer_PutsClaimsInContext(t *testing.T) {
	ts := newTestServer(t)
	u := ts.addUser(t, "ada@example.com", users.StatusActive)
	tokens := ts.login(t, "ada@example.com")

	var userID, subject string
	protected := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		userID, _ = server.UserIDFromContext(r.Context())
		if claims, ok := server.ClaimsFromContext(r.Context()); ok {
			subject = claims.Subject
		}
	}, ts.RequireBearer())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	protected(httptest.NewRecorder(), req)

	require.Equal(t, u.ID, userID)
	require.Equal(t, u.ID, subject)
}

func TestClientRefresh(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada@example.com", users.StatusActive)
	first := ts.login(t, "ada@example.com")

	rec := ts.postJSON(t, server.RouteClientAuthRefresh, map[string]string{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[tokenBody](t, rec)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Nil(t, second.User)

	require.Equal(t, http.StatusUnauthorized, ts.me(t, first.AccessToken).Code)
	require.Equal(t, http.StatusOK, ts.me(t, second.AccessToken).Code)

	rec = ts.postJSON(t, server.RouteClientAuthRefresh, map[string]string{"refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"detail":"Invalid or expired refresh token"}`, rec.Body.String())
}

func TestClientLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "ada@example.com", users.StatusActive)
	tokens := ts.login(t, "ada@example.com")

	rec := ts.postJSON(t, server.RouteClientAuthLogout,
		map[string]string{"refresh_token": tokens.RefreshToken},
		"Authorization", "Bearer "+tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusUnauthorized, ts.me(t, tokens.AccessToken).Code)
	rec = ts.postJSON(t, server.RouteClientAuthRefresh, map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// without a body or token logout still succeeds
	rec = ts.do(t, httptest.NewRequest(http.MethodPost, server.RouteClientAuthLogout, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// chunked request with an empty body
	req := httptest.NewRequest(http.MethodPost, server.RouteClientAuthLogout, strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	rec = ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, server.RouteClientAuthLogout, strings.NewReader("{not json")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type captureMailer struct {
	codes  map[string]string
	resets map[string]string
}

func (m *captureMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.codes[email] = code
	return nil
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, resetToken string) error {
	m.resets[email] = resetToken
	return nil
}

func TestClientRegistrationFlow(t *testing.T) {
	mailer := &captureMailer{codes: map[string]string{}, resets: map[string]string{}}
	ts := newTestServer(t, server.WithMailer(mailer))

	rec := ts.postJSON(t, server.RouteClientAuthRegister, map[string]string{
		"email": "grace@example.com", "password": testPassword, "name": "Grace", "company": "Navy",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[struct {
		User    users.Profile `json:"user"`
		Message string        `json:"message"`
	}](t, rec)
	require.Equal(t, users.StatusPendingVerification, reg.User.Status)
	require.NotEmpty(t, reg.Message)

	rec = ts.postJSON(t, server.RouteClientAuthRegister, map[string]string{
		"email": "grace@example.com", "password": testPassword, "name": "Grace",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.postJSON(t, server.RouteClientAuthLogin, map[string]string{"email": "grace@example.com", "password": testPassword})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "EMAIL_NOT_VERIFIED", decode[errorBody](t, rec).Code)

	rec = ts.postJSON(t, server.RouteClientAuthVerifyEmail, map[string]string{"email": "grace@example.com", "code": "000000x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.postJSON(t, server.RouteClientAuthVerifyEmail, map[string]string{"email": "grace@example.com", "code": mailer.codes["grace@example.com"]})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.postJSON(t, server.RouteClientAuthLogin, map[string]string{"email": "grace@example.com", "password": testPassword})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "PENDING_APPROVAL", decode[errorBody](t, rec).Code)

	u, err := ts.users.GetByEmail("grace@example.com")
	require.NoError(t, err)
	require.NoError(t, ts.users.SetStatus(u.ID, users.StatusActive))
	ts.login(t, "grace@example.com")
}

func TestClientPasswordReset(t *testing.T) {
	mailer := &captureMailer{codes: map[string]string{}, resets: map[string]string{}}
	ts := newTestServer(t, server.WithMailer(mailer))
	ts.addUser(t, "ada@example.com", users.StatusActive)

	for _, email := range []string{"ada@example.com", "nobody@example.com"} {
		rec := ts.postJSON(t, server.RouteClientAuthForgotPassword, map[string]string{"email": email})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := ts.postJSON(t, server.RouteClientAuthResendCode, map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.postJSON(t, server.RouteClientAuthResetPassword, map[string]string{"token": "bogus", "password": "N3wPassword"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.postJSON(t, server.RouteClientAuthResetPassword, map[string]string{"token": mailer.resets["ada@example.com"], "password": "N3wPassword"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.postJSON(t, server.RouteClientAuthLogin, map[string]string{"email": "ada@example.com", "password": "N3wPassword"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestClientSocialLogin(t *testing.T) {
	linkedin := identityfake.New("linkedin")
	linkedin.Result.Email = "li@example.com"
	ts := newTestServer(t, server.WithProvider(linkedin))

	rec := ts.postJSON(t, server.RouteClientAuthLinkedIn, map[string]string{"code": "li-code", "redirect_uri": "https://portal.example.com/cb"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "PENDING_APPROVAL", decode[errorBody](t, rec).Code)

	u, err := ts.users.GetByEmail("li@example.com")
	require.NoError(t, err)
	require.NoError(t, ts.users.SetStatus(u.ID, users.StatusActive))

	rec = ts.postJSON(t, server.RouteClientAuthLinkedIn, map[string]string{"code": "li-code-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "li@example.com", decode[tokenBody](t, rec).User.Email)

	// google is not configured in this server
	rec = ts.postJSON(t, server.RouteClientAuthGoogle, map[string]string{"code": "g-code"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
