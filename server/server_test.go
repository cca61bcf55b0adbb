package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/portal-auth/internal/config"
	"github.com/jrsteele09/portal-auth/server"
	refreshrepofake "github.com/jrsteele09/portal-auth/token/refresh/repofake"
	"github.com/jrsteele09/portal-auth/users"
	fakeuserrepo "github.com/jrsteele09/portal-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret = "session-secret-for-tests"
	testCookieDomain  = "example.com"
	testOrigin        = "https://portal.example.com"
	testPassword      = "Sup3rSecret"
)

type testServer struct {
	*server.Server
	users *fakeuserrepo.FakeUserRepo
}

func newTestServer(t *testing.T, options ...server.Option) *testServer {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("SESSION_SECRET", testSessionSecret)
	t.Setenv("JWT_SECRET", "jwt-secret-for-tests")
	t.Setenv("COOKIE_DOMAIN", testCookieDomain)
	t.Setenv("ALLOWED_ORIGINS", testOrigin)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("LINKEDIN_CLIENT_ID", "")
	t.Setenv("LANDING_PATH", "")

	userRepo := fakeuserrepo.NewFakeUserRepo()
	s, err := server.New(config.New(), server.Repos{
		Users:         userRepo,
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, options...)
	require.NoError(t, err)
	return &testServer{Server: s, users: userRepo}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) postJSON(t *testing.T, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return ts.do(t, req)
}

func (ts *testServer) addUser(t *testing.T, email string, status users.Status) *users.User {
	t.Helper()
	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	u := &users.User{Email: email, Name: "Test User", Status: status, PasswordHash: hash, EmailVerified: true}
	require.NoError(t, ts.users.Upsert(u))
	return u
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNew_RequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("JWT_SECRET", "jwt")
	_, err := server.New(config.New(), server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	})
	require.Error(t, err)

	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("JWT_SECRET", "")
	_, err = server.New(config.New(), server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, body(t, rec))
}

func TestCors(t *testing.T) {
	ts := newTestServer(t)

	t.Run("preflight answered before routing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, server.RouteAuthMe, nil)
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := ts.do(t, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
		require.Empty(t, rec.Body.String())
	})

	t.Run("unknown origin gets no cors headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, server.RouteAuthMe, nil)
		req.Header.Set("Origin", "https://evil.example.net")
		rec := ts.do(t, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecoverMiddleware(t *testing.T) {
	ts := newTestServer(t)
	h := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, ts.RecoverMiddleware)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
