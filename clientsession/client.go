package clientsession

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/portal-auth/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRequestTimeout = 30 * time.Second

	apiLogin          = "/api/client/auth/login"
	apiRegister       = "/api/client/auth/register"
	apiVerifyEmail    = "/api/client/auth/verify-email"
	apiResendCode     = "/api/client/auth/resend-code"
	apiForgotPassword = "/api/client/auth/forgot-password"
	apiResetPassword  = "/api/client/auth/reset-password"
	apiRefresh        = "/api/client/auth/refresh"
	apiLogout         = "/api/client/auth/logout"
	apiMe             = "/api/client/auth/me"

	refreshKey = "refresh"
)

type tokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *users.Profile `json:"user,omitempty"`
}

type errorResponse struct {
	Detail  string `json:"detail"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
}

// Client calls the client API. Every call is bounded by the request timeout. An authenticated
// call rejected with 401 triggers one refresh, shared by all callers that hit the same
// expiry, and is retried once; a second rejection ends the session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	timeout    time.Duration
	refreshes  singleflight.Group

	expiredLock sync.RWMutex
	onExpired   func()
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func NewClient(baseURL string, store TokenStore, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		store:      store,
		timeout:    DefaultRequestTimeout,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// OnSessionExpired registers fn to run whenever the client gives up on the stored session
func (c *Client) OnSessionExpired(fn func()) {
	c.expiredLock.Lock()
	defer c.expiredLock.Unlock()
	c.onExpired = fn
}

func (c *Client) Store() TokenStore {
	return c.store
}

func (c *Client) Login(ctx context.Context, email, password string) (*users.Profile, error) {
	var resp tokenResponse
	if err := c.send(ctx, http.MethodPost, apiLogin, "", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return nil, err
	}
	return c.saveTokens(resp)
}

func (c *Client) SocialLogin(ctx context.Context, provider, code, redirectURI string) (*users.Profile, error) {
	var resp tokenResponse
	body := map[string]string{"code": code}
	if redirectURI != "" {
		body["redirect_uri"] = redirectURI
	}
	if err := c.send(ctx, http.MethodPost, "/api/client/auth/"+provider, "", body, &resp); err != nil {
		return nil, err
	}
	return c.saveTokens(resp)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	var resp struct {
		User users.Profile `json:"user"`
	}
	if err := c.send(ctx, http.MethodPost, apiRegister, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) VerifyEmail(ctx context.Context, email, code string) (*users.Profile, error) {
	var resp struct {
		User users.Profile `json:"user"`
	}
	if err := c.send(ctx, http.MethodPost, apiVerifyEmail, "", map[string]string{"email": email, "code": code}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) ResendCode(ctx context.Context, email string) error {
	return c.send(ctx, http.MethodPost, apiResendCode, "", map[string]string{"email": email}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.send(ctx, http.MethodPost, apiForgotPassword, "", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) error {
	return c.send(ctx, http.MethodPost, apiResetPassword, "", map[string]string{"token": resetToken, "password": password}, nil)
}

// Logout revokes the session on the server when it can and always clears local credentials
func (c *Client) Logout(ctx context.Context) {
	access := c.store.Get(KeyAccessToken)
	refresh := c.store.Get(KeyRefreshToken)
	c.store.Clear()
	if access == "" && refresh == "" {
		return
	}
	if err := c.send(ctx, http.MethodPost, apiLogout, access, map[string]string{"refresh_token": refresh}, nil); err != nil {
		log.Debug().Err(err).Msg("server logout failed")
	}
}

func (c *Client) Me(ctx context.Context) (*users.Profile, error) {
	var resp struct {
		User users.Profile `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, apiMe, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Do makes an authenticated call with the stored access token
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	access := c.store.Get(KeyAccessToken)
	if access == "" {
		return ErrNotAuthenticated
	}

	err := c.send(ctx, method, path, access, in, out)
	if !isUnauthorized(err) {
		return err
	}

	if err := c.refresh(ctx, access); err != nil {
		c.expire()
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	err = c.send(ctx, method, path, c.store.Get(KeyAccessToken), in, out)
	if isUnauthorized(err) {
		c.expire()
		return ErrSessionExpired
	}
	return err
}

// Refresh exchanges the stored refresh token for a new pair
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresh(ctx, c.store.Get(KeyAccessToken))
}

// refresh renews the pair that replaced staleAccess. Concurrent callers share one request,
// and a caller whose token was already replaced does not refresh again.
func (c *Client) refresh(ctx context.Context, staleAccess string) error {
	_, err, _ := c.refreshes.Do(refreshKey, func() (any, error) {
		if current := c.store.Get(KeyAccessToken); current != "" && current != staleAccess {
			return nil, nil
		}
		refreshToken := c.store.Get(KeyRefreshToken)
		if refreshToken == "" {
			return nil, ErrNotAuthenticated
		}

		// shared by every waiting caller, so it must not die with the first caller's context
		var resp tokenResponse
		if err := c.send(context.WithoutCancel(ctx), http.MethodPost, apiRefresh, "", map[string]string{"refresh_token": refreshToken}, &resp); err != nil {
			return nil, err
		}
		if resp.AccessToken == "" {
			return nil, errors.New("refresh response carried no access token")
		}
		c.store.Set(KeyAccessToken, resp.AccessToken)
		if resp.RefreshToken != "" {
			c.store.Set(KeyRefreshToken, resp.RefreshToken)
		}
		return nil, nil
	})
	return err
}

func (c *Client) expire() {
	c.store.Clear()
	c.expiredLock.RLock()
	fn := c.onExpired
	c.expiredLock.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) saveTokens(resp tokenResponse) (*users.Profile, error) {
	if resp.AccessToken == "" {
		return nil, errors.New("[clientsession] login response carried no access token")
	}
	c.store.Set(KeyAccessToken, resp.AccessToken)
	c.store.Set(KeyRefreshToken, resp.RefreshToken)
	if resp.User != nil {
		b, err := json.Marshal(resp.User)
		if err != nil {
			return nil, fmt.Errorf("[clientsession] encode user: %w", err)
		}
		c.store.Set(KeyUser, string(b))
	}
	return resp.User, nil
}

// send performs one request within the request timeout. A non-2xx answer is an *APIError.
func (c *Client) send(ctx context.Context, method, path, accessToken string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[clientsession send] encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("[clientsession send] %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("[clientsession send] %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		detail := e.Detail
		if detail == "" {
			detail = e.Message
		}
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Detail: detail, Code: e.Code}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("[clientsession send] decode response: %w", err)
	}
	return nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
