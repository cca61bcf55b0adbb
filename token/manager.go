package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
	"github.com/jrsteele09/portal-auth/token/refresh"
)

// Claims carried by client API access tokens
type Claims struct {
	SessionID string `json:"sid"` // refresh family, stable across rotations
	jwt.RegisteredClaims
}

// Pair is what a successful login or refresh hands to the client
type Pair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	ExpiresIn       int64 // seconds until the access token expires
}

type Manager struct {
	signer            Signer
	refresh           *refresh.Manager
	revokedCache      RevokedTokenCache
	activity          *ActivityRegistry // nil disables server-side idle expiry
	issuer            string
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

// WithIdleTimeout enables server-side idle expiry of bearer sessions
func WithIdleTimeout(idle time.Duration) ManagerOption {
	return func(m *Manager) {
		if idle > 0 {
			m.activity = NewActivityRegistry(idle)
		}
	}
}

func New(signer Signer, refreshManager *refresh.Manager, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		refresh:      refreshManager,
		revokedCache: NewInMemoryRevokedTokenCache(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Issue starts a new bearer session for userID
func (m *Manager) Issue(userID string) (*Pair, error) {
	return m.issue(userID, uuid.New().String())
}

func (m *Manager) issue(userID, sessionID string) (*Pair, error) {
	now := m.nowFunc()
	exp := now.Add(m.accessTokenExpiry)
	jti := uuid.New().String()

	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	accessToken, err := m.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("[token Issue] failed to sign access token: %w", err)
	}

	rt, err := m.refresh.Create(userID, sessionID, jti, now, exp)
	if err != nil {
		return nil, fmt.Errorf("[token Issue] %w", err)
	}

	if m.activity != nil {
		m.activity.Touch(sessionID)
	}

	return &Pair{
		AccessToken:     accessToken,
		RefreshToken:    rt.Token,
		AccessExpiresAt: exp,
		ExpiresIn:       int64(m.accessTokenExpiry.Seconds()),
	}, nil
}

// Verify checks signature, expiry, revocation and idleness of an access token.
// It has no side effects; callers that accept the token should Touch its session.
func (m *Manager) Verify(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(rawToken, &claims, m.signer.GetVerificationKey, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	if m.revokedCache.IsRevoked(claims.ID) {
		return nil, apperrors.ErrTokenRevoked
	}
	if m.activity != nil && !m.activity.Active(claims.SessionID) {
		return nil, apperrors.ErrTokenIdle
	}
	return &claims, nil
}

// Touch records activity on a bearer session
func (m *Manager) Touch(sessionID string) {
	if m.activity != nil {
		m.activity.Touch(sessionID)
	}
}

// Refresh redeems a refresh token for a new pair. The presented refresh token can never be
// used again and the access token issued with it is revoked. allow, when non-nil, can veto
// the refresh for the token's subject (e.g. a user who is no longer active).
func (m *Manager) Refresh(refreshToken string, allow func(userID string) error) (*Pair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	stored, err := m.refresh.Redeem(refreshToken)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRefreshToken, "[token Refresh] %v", err)
	}
	m.revokeAccess(stored.AccessJTI, stored.AccessExpiresAt)

	if m.nowFunc().Sub(stored.Iat) > m.refresh.Expiry() {
		return nil, apperrors.ErrRefreshTokenExpired
	}
	if m.activity != nil && !m.activity.Active(stored.FamilyID) {
		return nil, apperrors.ErrTokenIdle
	}
	if allow != nil {
		if err := allow(stored.UserID); err != nil {
			return nil, err
		}
	}

	return m.issue(stored.UserID, stored.FamilyID)
}

// Revoke ends a bearer session: the refresh token is deleted and the access token, when
// given and still valid, is revoked. Tokens that are already unusable are ignored.
func (m *Manager) Revoke(accessToken, refreshToken string) {
	if refreshToken != "" {
		if stored, err := m.refresh.Redeem(refreshToken); err == nil {
			m.revokeAccess(stored.AccessJTI, stored.AccessExpiresAt)
			if m.activity != nil {
				m.activity.Forget(stored.FamilyID)
			}
		}
	}
	if accessToken != "" {
		if claims, err := m.Verify(accessToken); err == nil {
			m.revokeAccess(claims.ID, claims.ExpiresAt.Time)
			if m.activity != nil {
				m.activity.Forget(claims.SessionID)
			}
		}
	}
}

func (m *Manager) revokeAccess(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	_ = m.revokedCache.Add(jti, exp.Sub(m.nowFunc()))
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}
