package dashboard

import (
	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/session"
)

// Route is a dashboard location.
type Route string

const (
	RouteHome             Route = "/"
	RouteAbout            Route = "/about"
	RouteLogin            Route = "/login"
	RouteStudentLogin     Route = "/student-login"
	RouteDashboard        Route = "/dashboard"
	RouteUsers            Route = "/users"
	RouteStudentDashboard Route = "/student-dashboard"
)

// HomeFor returns where a session lands after login.
func HomeFor(sess *session.Session) Route {
	switch {
	case !sess.Valid():
		return RouteHome
	case sess.Role() == model.RoleStudent:
		return RouteStudentDashboard
	default:
		return RouteDashboard
	}
}

// Resolve guards path for sess and returns the route actually shown.
// Logged-out visitors of a protected route go to the matching login page;
// a wrong role goes to its own home.
func Resolve(path string, sess *session.Session) Route {
	switch r := Route(path); r {
	case RouteHome, RouteAbout, RouteLogin, RouteStudentLogin:
		return r

	case RouteDashboard, RouteUsers:
		if !sess.Valid() {
			return RouteLogin
		}
		if !sess.Staff() {
			return HomeFor(sess)
		}
		if r == RouteUsers && !sess.Can(session.ManageUsers) {
			return RouteDashboard
		}
		return r

	case RouteStudentDashboard:
		if !sess.Valid() {
			return RouteStudentLogin
		}
		if sess.Role() != model.RoleStudent {
			return HomeFor(sess)
		}
		return r

	default:
		return RouteHome
	}
}
