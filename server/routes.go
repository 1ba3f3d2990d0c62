package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteRoot, ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))

	// LOGIN / SESSION
	s.RegisterRouteFunc("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.AuthCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthStatus, ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// TOKENS
	s.RegisterRouteFunc("GET "+RouteAuthTokens, ChainMiddleware(s.TokensHandler(), s.APIMiddleware()...))

	// GATEWAY CONSENT VERIFICATION
	s.RegisterRouteFunc("GET "+RouteArcadeVerify, ChainMiddleware(s.ArcadeVerifyHandler(), s.APIMiddleware()...))

	// OBSERVABILITY
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
