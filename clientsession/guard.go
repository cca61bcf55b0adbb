package clientsession

import "strings"

const (
	RouteLogin           = "/login"
	RouteRegister        = "/register"
	RouteVerifyEmail     = "/verify-email"
	RouteForgotPassword  = "/forgot-password"
	RouteResetPassword   = "/reset-password"
	RoutePendingApproval = "/pending-approval"
	RouteSetup           = "/setup"
	RouteDashboard       = "/dashboard"

	// RouteIdleTimeout is where an idle session is sent
	RouteIdleTimeout = RouteLogin + "?timeout=1"
)

var publicRoutes = map[string]struct{}{
	RouteLogin:           {},
	RouteRegister:        {},
	RouteVerifyEmail:     {},
	RouteForgotPassword:  {},
	RouteResetPassword:   {},
	RoutePendingApproval: {},
	RouteSetup:           {},
}

// IsPublicRoute reports whether path can be visited without a session
func IsPublicRoute(path string) bool {
	_, ok := publicRoutes[routePath(path)]
	return ok
}

// Guard decides a navigation to path. It returns the route to redirect to instead, or ""
// when the navigation may proceed.
func Guard(authenticated bool, path string) string {
	switch {
	case !authenticated && !IsPublicRoute(path):
		return RouteLogin
	case authenticated && routePath(path) == RouteLogin:
		return RouteDashboard
	default:
		return ""
	}
}

// routePath drops any query string or fragment
func routePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
