package clientsession

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/portal-auth/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultCheckInterval = 60 * time.Second
)

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Navigator performs a hard navigation (window.location in a browser)
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Monitor tracks whether the browser holds a usable session. While authenticated it ends the
// session after a period without user activity. The idle timeout is a UX boundary only; the
// server enforces its own.
type Monitor struct {
	client        *Client
	nav           Navigator
	idleTimeout   time.Duration
	checkInterval time.Duration
	nowFunc       func() time.Time

	lock         sync.Mutex
	state        State
	user         *users.Profile
	lastActivity time.Time
}

type MonitorOption func(*Monitor)

func WithIdleTimeout(idle time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.idleTimeout = idle
	}
}

func WithCheckInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.checkInterval = interval
	}
}

func WithNowFunc(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.nowFunc = now
	}
}

func NewMonitor(client *Client, nav Navigator, options ...MonitorOption) *Monitor {
	m := &Monitor{
		client:        client,
		nav:           nav,
		idleTimeout:   DefaultIdleTimeout,
		checkInterval: DefaultCheckInterval,
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	client.OnSessionExpired(m.sessionExpired)
	return m
}

func (m *Monitor) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

func (m *Monitor) User() *users.Profile {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.user
}

// Restore rehydrates the session after a reload from stored credentials. An expired access
// token is refreshed once; anything else unusable clears the store.
func (m *Monitor) Restore(ctx context.Context) bool {
	store := m.client.Store()
	access := store.Get(KeyAccessToken)
	rawUser := store.Get(KeyUser)
	if access == "" || rawUser == "" {
		store.Clear()
		return false
	}

	var user users.Profile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Debug().Err(err).Msg("stored user unreadable")
		store.Clear()
		return false
	}

	if tokenExpired(access, m.nowFunc()) {
		if err := m.client.Refresh(ctx); err != nil {
			log.Debug().Err(err).Msg("stored session could not be refreshed")
			store.Clear()
			return false
		}
	}

	m.authenticated(&user)
	return true
}

func (m *Monitor) Login(ctx context.Context, email, password string) (*users.Profile, error) {
	m.setState(Authenticating)
	user, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.setState(Unauthenticated)
		return nil, err
	}
	m.authenticated(user)
	return user, nil
}

func (m *Monitor) SocialLogin(ctx context.Context, provider, code, redirectURI string) (*users.Profile, error) {
	m.setState(Authenticating)
	user, err := m.client.SocialLogin(ctx, provider, code, redirectURI)
	if err != nil {
		m.setState(Unauthenticated)
		return nil, err
	}
	m.authenticated(user)
	return user, nil
}

// Register creates a pending account; it never authenticates
func (m *Monitor) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	return m.client.Register(ctx, req)
}

func (m *Monitor) VerifyEmail(ctx context.Context, email, code string) (*users.Profile, error) {
	return m.client.VerifyEmail(ctx, email, code)
}

func (m *Monitor) Logout(ctx context.Context) {
	m.client.Logout(ctx)
	m.setState(Unauthenticated)
	m.nav.Navigate(RouteLogin)
}

// Touch records user activity (pointer, keyboard, scroll, touch)
func (m *Monitor) Touch() {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.state == Authenticated {
		m.lastActivity = m.nowFunc()
	}
}

// Check ends an authenticated session that has been idle longer than the idle budget. It
// reports whether the session was ended.
func (m *Monitor) Check(now time.Time) bool {
	m.lock.Lock()
	if m.state != Authenticated || m.idleTimeout <= 0 || now.Sub(m.lastActivity) <= m.idleTimeout {
		m.lock.Unlock()
		return false
	}
	m.state = Unauthenticated
	m.user = nil
	m.lock.Unlock()

	log.Info().Dur("idle_timeout", m.idleTimeout).Msg("session ended after inactivity")
	m.client.Store().Clear()
	m.nav.Navigate(RouteIdleTimeout)
	return true
}

// Run checks for idleness every check interval until ctx is done
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(m.nowFunc())
		}
	}
}

// Guard decides a navigation given the current state; see Guard
func (m *Monitor) Guard(path string) string {
	return Guard(m.State() == Authenticated, path)
}

func (m *Monitor) sessionExpired() {
	m.lock.Lock()
	wasAuthenticated := m.state == Authenticated
	m.state = Unauthenticated
	m.user = nil
	m.lock.Unlock()

	if wasAuthenticated {
		m.nav.Navigate(RouteLogin)
	}
}

func (m *Monitor) authenticated(user *users.Profile) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = Authenticated
	m.user = user
	m.lastActivity = m.nowFunc()
}

func (m *Monitor) setState(s State) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = s
	if s == Unauthenticated {
		m.user = nil
	}
}

// tokenExpired reads the exp claim without verifying the signature; the server verifies
func tokenExpired(accessToken string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return true
	}
	return claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time)
}
