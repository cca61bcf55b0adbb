package config

import "time"

// ProviderSettings describes one upstream identity provider
type ProviderSettings struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string // OIDC issuer used for discovery of the userinfo endpoint
}

// Configured reports whether the provider can be used at all
func (p ProviderSettings) Configured() bool {
	return p.ClientID != ""
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetGoogleProvider() ProviderSettings {
	return ProviderSettings{
		Name:         "google",
		ClientID:     GetEnv("GOOGLE_CLIENT_ID", ""),
		ClientSecret: GetEnv("GOOGLE_CLIENT_SECRET", ""),
		RedirectURL:  GetEnv("GOOGLE_REDIRECT_URL", EnvVars{}.GetBaseURL()+"/auth/callback"),
		Issuer:       "https://accounts.google.com",
	}
}

func (OAuth) GetLinkedInProvider() ProviderSettings {
	return ProviderSettings{
		Name:         "linkedin",
		ClientID:     GetEnv("LINKEDIN_CLIENT_ID", ""),
		ClientSecret: GetEnv("LINKEDIN_CLIENT_SECRET", ""),
		RedirectURL:  GetEnv("LINKEDIN_REDIRECT_URL", ""),
		Issuer:       "https://www.linkedin.com/oauth",
	}
}

func (OAuth) GetStateTTL() time.Duration {
	return 600 * time.Second
}

func (OAuth) GetSessionLifetime() time.Duration {
	return 7 * 24 * time.Hour
}
