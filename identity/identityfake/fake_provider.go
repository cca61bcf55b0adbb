package identityfake

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/jrsteele09/portal-auth/identity"
	"golang.org/x/oauth2"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider is a scriptable identity provider for tests
type FakeProvider struct {
	ProviderName string
	ClientID     string
	AuthURL      string

	ExchangeErr error
	ProfileErr  error
	Result      identity.Profile

	lock          sync.Mutex
	exchangeCalls int
	profileCalls  int
	lastCode      string
}

func New(name string) *FakeProvider {
	return &FakeProvider{
		ProviderName: name,
		ClientID:     "fake-client",
		AuthURL:      "https://idp.example.com/authorize",
		Result: identity.Profile{
			ProviderID:    "idp-123",
			Email:         "ada@example.com",
			EmailVerified: true,
			Name:          "Ada Lovelace",
			Picture:       "https://idp.example.com/ada.png",
		},
	}
}

func (f *FakeProvider) Name() string     { return f.ProviderName }
func (f *FakeProvider) Configured() bool { return f.ClientID != "" }

func (f *FakeProvider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", f.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	return f.AuthURL + "?" + q.Encode()
}

func (f *FakeProvider) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.exchangeCalls++
	f.lastCode = code
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	if code == "" {
		return nil, errors.New("empty code")
	}
	return &oauth2.Token{AccessToken: "provider-access-" + code, TokenType: "Bearer"}, nil
}

func (f *FakeProvider) Profile(_ context.Context, _ *oauth2.Token) (*identity.Profile, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.profileCalls++
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	p := f.Result
	return &p, nil
}

func (f *FakeProvider) ExchangeCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.exchangeCalls
}

func (f *FakeProvider) ProfileCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.profileCalls
}

func (f *FakeProvider) LastCode() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lastCode
}
