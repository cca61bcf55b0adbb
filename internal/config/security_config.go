package config

import "time"

type Security struct{}

var _ SecurityConfig = Security{}

// GetSessionSecret signs session cookies and state cookies
func (Security) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", "")
}

// GetJWTSecret is the shared verification secret for client API bearer tokens
func (Security) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

// GetCookieDomain scopes the session cookie to the parent domain so portal subdomains share it.
// Empty means host-only.
func (Security) GetCookieDomain() string {
	return GetEnv("COOKIE_DOMAIN", "")
}

func (Security) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (Security) GetRefreshTokenExpiry() time.Duration {
	return GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

// GetIdleTimeout is the server-side idle budget for bearer sessions; zero disables it
func (Security) GetIdleTimeout() time.Duration {
	return GetDurationEnv("IDLE_TIMEOUT", 30*time.Minute)
}
