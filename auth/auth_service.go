package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jrsteele09/portal-auth/identity"
	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
	"github.com/jrsteele09/portal-auth/token"
	"github.com/jrsteele09/portal-auth/users"
	"github.com/rs/zerolog/log"
)

const (
	verificationCodeTTL = 15 * time.Minute
	resetTokenTTL       = time.Hour
)

// Service issues client API credentials: password and social login, registration with
// email verification, password reset, refresh and logout.
type Service struct {
	users     users.Repo
	tokens    *token.Manager
	mailer    Mailer
	providers map[string]identity.Provider
	nowFunc   func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func WithMailer(m Mailer) ServiceOption {
	return func(s *Service) {
		s.mailer = m
	}
}

// WithProvider enables social login through p under p.Name()
func WithProvider(p identity.Provider) ServiceOption {
	return func(s *Service) {
		s.providers[p.Name()] = p
	}
}

func NewService(userRepo users.Repo, tokens *token.Manager, options ...ServiceOption) *Service {
	s := &Service{
		users:     userRepo,
		tokens:    tokens,
		mailer:    LogMailer{},
		providers: make(map[string]identity.Provider),
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// LoginResult is returned by every successful login path
type LoginResult struct {
	Tokens *token.Pair
	User   users.Profile
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Company  string
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil || !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}
	if err := checkStatus(user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	email := users.NormaliseEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errInvalidRequest("A valid email address is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errInvalidRequest("Name is required")
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return nil, coded(400, err.Error(), "", apperrors.ErrWeakPassword)
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, errUserExists
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("[auth Register] hash password: %w", err)
	}
	code, err := verificationCode()
	if err != nil {
		return nil, fmt.Errorf("[auth Register] %w", err)
	}

	now := s.nowFunc()
	user := &users.User{
		Email:                 email,
		Name:                  strings.TrimSpace(req.Name),
		Company:               strings.TrimSpace(req.Company),
		Status:                users.StatusPendingVerification,
		CreatedAt:             now,
		PasswordHash:          hash,
		VerificationCode:      code,
		VerificationExpiresAt: now.Add(verificationCodeTTL),
	}
	if err := s.users.Upsert(user); err != nil {
		if apperrors.Is(err, apperrors.ErrUserExists) {
			return nil, errUserExists
		}
		return nil, fmt.Errorf("[auth Register] store user: %w", err)
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to send verification code")
	}
	profile := user.Profile()
	return &profile, nil
}

// VerifyEmail confirms a registration code and moves the user on to admin approval
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*users.Profile, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, errInvalidCode
	}
	if user.Status != users.StatusPendingVerification {
		if user.EmailVerified {
			profile := user.Profile()
			return &profile, nil
		}
		return nil, errInvalidCode
	}
	if user.VerificationCode == "" || s.nowFunc().After(user.VerificationExpiresAt) ||
		subtle.ConstantTimeCompare([]byte(user.VerificationCode), []byte(strings.TrimSpace(code))) != 1 {
		return nil, errInvalidCode
	}

	user.EmailVerified = true
	user.Status = users.StatusPendingApproval
	user.VerificationCode = ""
	user.VerificationExpiresAt = time.Time{}
	if err := s.users.Upsert(user); err != nil {
		return nil, fmt.Errorf("[auth VerifyEmail] store user: %w", err)
	}
	profile := user.Profile()
	return &profile, nil
}

// ResendCode issues a fresh verification code. It reports success for unknown emails so
// the endpoint cannot be used to discover accounts.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil || user.Status != users.StatusPendingVerification {
		return nil
	}
	code, err := verificationCode()
	if err != nil {
		return fmt.Errorf("[auth ResendCode] %w", err)
	}
	user.VerificationCode = code
	user.VerificationExpiresAt = s.nowFunc().Add(verificationCodeTTL)
	if err := s.users.Upsert(user); err != nil {
		return fmt.Errorf("[auth ResendCode] store user: %w", err)
	}
	if err := s.mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to resend verification code")
	}
	return nil
}

// ForgotPassword issues a reset token when the account exists; it never reveals whether it does
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil
	}
	resetToken, err := randomHex(32)
	if err != nil {
		return fmt.Errorf("[auth ForgotPassword] %w", err)
	}
	user.ResetToken = resetToken
	user.ResetExpiresAt = s.nowFunc().Add(resetTokenTTL)
	if err := s.users.Upsert(user); err != nil {
		return fmt.Errorf("[auth ForgotPassword] store user: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetToken); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to send password reset")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, resetToken, password string) error {
	user, err := s.users.GetByResetToken(resetToken)
	if err != nil || s.nowFunc().After(user.ResetExpiresAt) {
		return errInvalidResetToken
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return coded(400, err.Error(), "", apperrors.ErrWeakPassword)
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("[auth ResetPassword] hash password: %w", err)
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetExpiresAt = time.Time{}
	if err := s.users.Upsert(user); err != nil {
		return fmt.Errorf("[auth ResetPassword] store user: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair. Any failure is terminal for the caller.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	pair, err := s.tokens.Refresh(refreshToken, func(userID string) error {
		user, err := s.users.GetByID(userID)
		if err != nil {
			return err
		}
		if user.Status != users.StatusActive {
			return apperrors.ErrInvalidRefreshToken
		}
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Msg("refresh rejected")
		return nil, errInvalidRefresh
	}
	return pair, nil
}

// SocialLogin completes a login through an upstream provider's authorization code. A new
// social user with a provider-verified email starts out pending approval; an unverified one
// must confirm a code first. An unverified provider email never signs in to an existing account.
func (s *Service) SocialLogin(ctx context.Context, providerName, code, redirectURI string) (*LoginResult, error) {
	provider, ok := s.providers[providerName]
	if !ok || !provider.Configured() {
		return nil, errProviderNotConfigured(providerName)
	}
	if strings.TrimSpace(code) == "" {
		return nil, errInvalidRequest("Authorization code is required")
	}

	tok, err := provider.Exchange(ctx, code, redirectURI)
	if err != nil {
		log.Error().Err(err).Str("provider", providerName).Msg("social login token exchange failed")
		return nil, errSocialLogin
	}
	profile, err := provider.Profile(ctx, tok)
	if err != nil {
		log.Error().Err(err).Str("provider", providerName).Msg("social login profile fetch failed")
		return nil, errSocialLogin
	}
	if profile.Email == "" {
		return nil, errNoEmail
	}

	user, err := s.users.GetByEmail(profile.Email)
	switch {
	case err != nil:
		if user, err = s.createSocialUser(ctx, providerName, profile); err != nil {
			return nil, err
		}
	case !profile.EmailVerified:
		log.Warn().Str("provider", providerName).Str("user_id", user.ID).Msg("social login with unverified provider email refused for existing account")
		return nil, errUnverifiedProviderEmail
	case user.Status == users.StatusPendingVerification && profile.EmailVerified:
		user.EmailVerified = true
		user.Status = users.StatusPendingApproval
		if err := s.users.Upsert(user); err != nil {
			return nil, fmt.Errorf("[auth SocialLogin] store user: %w", err)
		}
	}

	if err := checkStatus(user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) createSocialUser(ctx context.Context, providerName string, profile *identity.Profile) (*users.User, error) {
	now := s.nowFunc()
	user := &users.User{
		Email:         users.NormaliseEmail(profile.Email),
		Name:          profile.Name,
		Status:        users.StatusPendingApproval,
		EmailVerified: profile.EmailVerified,
		CreatedAt:     now,
		Provider:      providerName,
		ProviderID:    profile.ProviderID,
	}
	if !profile.EmailVerified {
		code, err := verificationCode()
		if err != nil {
			return nil, fmt.Errorf("[auth SocialLogin] %w", err)
		}
		user.Status = users.StatusPendingVerification
		user.VerificationCode = code
		user.VerificationExpiresAt = now.Add(verificationCodeTTL)
	}
	if err := s.users.Upsert(user); err != nil {
		return nil, fmt.Errorf("[auth SocialLogin] store user: %w", err)
	}
	if user.VerificationCode != "" {
		if err := s.mailer.SendVerificationCode(ctx, user.Email, user.VerificationCode); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("failed to send verification code")
		}
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*users.Profile, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("[auth Me] %w", err)
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) {
	s.tokens.Revoke(accessToken, refreshToken)
}

func (s *Service) issue(user *users.User) (*LoginResult, error) {
	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue tokens")
		return nil, errInternal
	}
	return &LoginResult{Tokens: pair, User: user.Profile()}, nil
}

// checkStatus gates login on the account lifecycle, after credentials are known to be good
func checkStatus(user *users.User) error {
	switch user.Status {
	case users.StatusActive:
		return nil
	case users.StatusPendingVerification:
		return errEmailNotVerified
	case users.StatusPendingApproval:
		return errPendingApproval
	default:
		return errAccountRejected
	}
}

// verificationCode returns a six digit code from crypto/rand
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
