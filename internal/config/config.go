package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLandingPath() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type OAuthConfig interface {
	GetGoogleProvider() ProviderSettings
	GetLinkedInProvider() ProviderSettings
	GetStateTTL() time.Duration
	GetSessionLifetime() time.Duration
}

type SecurityConfig interface {
	GetSessionSecret() string
	GetJWTSecret() string
	GetCookieDomain() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetIdleTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
}

func New() Config {
	return mainConfig{}
}
