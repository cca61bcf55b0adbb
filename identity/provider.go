// Package identity talks to upstream OAuth2/OIDC identity providers.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/portal-auth/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Profile is what the application needs to know about an upstream user
type Profile struct {
	ProviderID    string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Provider is one upstream identity provider using the authorization-code flow
type Provider interface {
	Name() string
	Configured() bool
	// AuthCodeURL builds the redirect that starts a login, requesting an offline (refresh
	// capable) grant with forced consent.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for provider tokens. An empty redirectURI uses
	// the configured one.
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)
	Profile(ctx context.Context, tok *oauth2.Token) (*Profile, error)
}

// OIDCProvider implements Provider with golang.org/x/oauth2 for the code flow and
// go-oidc for discovering and calling the userinfo endpoint.
type OIDCProvider struct {
	settings config.ProviderSettings
	oauth2   *oauth2.Config

	providerLock sync.RWMutex
	provider     *oidc.Provider
}

var _ Provider = (*OIDCProvider)(nil)

func NewOIDCProvider(settings config.ProviderSettings, endpoint oauth2.Endpoint) *OIDCProvider {
	return &OIDCProvider{
		settings: settings,
		oauth2: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  settings.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}
}

func NewGoogle(settings config.ProviderSettings) *OIDCProvider {
	return NewOIDCProvider(settings, endpoints.Google)
}

func NewLinkedIn(settings config.ProviderSettings) *OIDCProvider {
	return NewOIDCProvider(settings, endpoints.LinkedIn)
}

func (p *OIDCProvider) Name() string {
	return p.settings.Name
}

func (p *OIDCProvider) Configured() bool {
	return p.settings.Configured()
}

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	tok, err := p.oauth2.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("[identity Exchange] %s: %w", p.settings.Name, err)
	}
	return tok, nil
}

func (p *OIDCProvider) Profile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	provider, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}

	info, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, fmt.Errorf("[identity Profile] %s userinfo: %w", p.settings.Name, err)
	}

	var claims struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[identity Profile] %s claims: %w", p.settings.Name, err)
	}

	return &Profile{
		ProviderID:    info.Subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// discover resolves the OIDC provider metadata once and caches it
func (p *OIDCProvider) discover(ctx context.Context) (*oidc.Provider, error) {
	p.providerLock.RLock()
	provider := p.provider
	p.providerLock.RUnlock()
	if provider != nil {
		return provider, nil
	}

	provider, err := oidc.NewProvider(ctx, p.settings.Issuer)
	if err != nil {
		return nil, fmt.Errorf("[identity discover] failed to create OIDC provider: %w", err)
	}

	p.providerLock.Lock()
	p.provider = provider
	p.providerLock.Unlock()
	return provider, nil
}
