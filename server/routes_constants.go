package server

const (
	RouteRoot         = "/"
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthStatus   = "/auth/status"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthTokens   = "/auth/tokens"
	RouteArcadeVerify = "/arcade/verify"
	RouteMetrics      = "/metrics"
)
