package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"agentgate/gateway"
	"agentgate/identity"
	"agentgate/internal/config"
	"agentgate/sessions"
)

// IdentityService is the slice of the identity provider wiring the HTTP
// layer needs: building login URLs, completing exchanges, serving tokens.
type IdentityService interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string, scopes []string) (identity.Login, error)
	Tokens(ctx context.Context, userKey string, scopes []string) (identity.TokenPair, error)
}

// GatewayVerifier confirms consent flows with the tool gateway.
type GatewayVerifier interface {
	ConfirmUser(ctx context.Context, flowID, userKey string) (*gateway.Confirmation, error)
	WaitForCompletion(ctx context.Context, authID string) (*gateway.Authorization, error)
}

// Deps holds all service dependencies for the Server
type Deps struct {
	Identity IdentityService
	Gateway  GatewayVerifier
	Sessions sessions.Repo
}

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	identity IdentityService
	gateway  GatewayVerifier
	sessions sessions.Repo
}

func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		identity: deps.Identity,
		gateway:  deps.Gateway,
		sessions: deps.Sessions,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
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
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered")
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
