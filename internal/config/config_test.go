package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/portal-auth/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "IDLE_TIMEOUT", "BASE_URL", "GOOGLE_REDIRECT_URL"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 30*time.Minute, c.GetIdleTimeout())
	require.Equal(t, 600*time.Second, c.GetStateTTL())
	require.Equal(t, 7*24*time.Hour, c.GetSessionLifetime())
	require.Equal(t, "http://localhost:8080/auth/callback", c.GetGoogleProvider().RedirectURL)
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("IDLE_TIMEOUT", "0")
	t.Setenv("REFRESH_TOKEN_TTL", "not-a-duration")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("LINKEDIN_CLIENT_ID", "")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, 5*time.Minute, c.GetAccessTokenExpiry())
	require.Zero(t, c.GetIdleTimeout())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.True(t, c.GetGoogleProvider().Configured())
	require.False(t, c.GetLinkedInProvider().Configured())
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com ,https://b.example.com,, ")
	origins := config.New().GetAllowedOrigins()

	require.Len(t, origins, 2)
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.net"))
}
