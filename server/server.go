package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/portal-auth/auth"
	"github.com/jrsteele09/portal-auth/identity"
	"github.com/jrsteele09/portal-auth/internal/config"
	"github.com/jrsteele09/portal-auth/oauthstate"
	"github.com/jrsteele09/portal-auth/sessions"
	"github.com/jrsteele09/portal-auth/token"
	"github.com/jrsteele09/portal-auth/token/refresh"
	"github.com/jrsteele09/portal-auth/users"
	"github.com/rs/zerolog/log"
)

// Repos are the stores the server is built over
type Repos struct {
	Users         users.Repo
	RefreshTokens refresh.Repo
}

type Server struct {
	env     string
	mux     *http.ServeMux
	handler http.HandlerFunc
	routes  []string
	config  config.Config
	nowFunc func() time.Time

	providers     map[string]identity.Provider
	mailer        auth.Mailer
	stateSealer   *oauthstate.Sealer
	stateRegistry *oauthstate.Registry
	codec         *sessions.Codec
	verifier      *sessions.Verifier
	tokens        *token.Manager
	auth          *auth.Service
}

type Option func(*Server)

// WithProvider replaces the identity provider registered under p.Name()
func WithProvider(p identity.Provider) Option {
	return func(s *Server) {
		s.providers[p.Name()] = p
	}
}

func WithMailer(m auth.Mailer) Option {
	return func(s *Server) {
		s.mailer = m
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(cfg config.Config, repos Repos, options ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		nowFunc: time.Now,
		providers: map[string]identity.Provider{
			providerGoogle:   identity.NewGoogle(cfg.GetGoogleProvider()),
			providerLinkedIn: identity.NewLinkedIn(cfg.GetLinkedInProvider()),
		},
		mailer: auth.LogMailer{},
	}
	for _, opt := range options {
		opt(s)
	}

	if cfg.GetJWTSecret() == "" {
		return nil, fmt.Errorf("[Server New] JWT_SECRET must be set")
	}
	codec, err := sessions.NewCodec(cfg.GetSessionSecret())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create session codec: %w", err)
	}
	s.codec = codec
	s.verifier = sessions.NewVerifier(codec, sessions.WithNowFunc(s.nowFunc))
	s.stateSealer = oauthstate.NewSealer(cfg.GetSessionSecret())
	s.stateRegistry = oauthstate.NewRegistry(cfg.GetStateTTL())

	s.tokens = token.New(
		token.NewHMACSigner(cfg.GetJWTSecret()),
		refresh.NewManager(repos.RefreshTokens, cfg.GetRefreshTokenExpiry()),
		token.WithIssuer(cfg.GetBaseURL()),
		token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithIdleTimeout(cfg.GetIdleTimeout()),
		token.WithNowFunc(s.nowFunc),
	)

	authOptions := []auth.ServiceOption{auth.WithMailer(s.mailer), auth.WithNowFunc(s.nowFunc)}
	for _, p := range s.providers {
		authOptions = append(authOptions, auth.WithProvider(p))
	}
	s.auth = auth.NewService(repos.Users, s.tokens, authOptions...)

	s.initRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.StdMiddleware()...)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	colour, ok := methodColors[method]
	if !ok {
		colour = Gray
	}
	log.Debug().Msgf("[%s%-7s%s] %s", colour, method, ResetColor, path)
}
