package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/model"
	"github.com/sihmvp/dropout-monitor/internal/session"
)

// AppOptions configures an App.
type AppOptions struct {
	SearchDebounce time.Duration
	// Live refetches the roster when another user changes it.
	Live bool
	Log  zerolog.Logger
	Now  func() time.Time
}

// App is one dashboard user from login to logout. Every page state hangs off
// the session created at login and is dropped at logout.
type App struct {
	api  API
	opts AppOptions
	log  zerolog.Logger

	mu        sync.Mutex
	sess      *session.Session
	events    *RosterEvents
	roster    *Controller
	users     *UserManager
	student   *StudentView
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

func NewApp(api API, opts AppOptions) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{
		api:  api,
		opts: opts,
		log:  opts.Log.With().Str("component", "dashboard_app").Logger(),
	}
}

// Login signs in through the staff portal. Admin and mentor accounts are
// admitted; a student account is signed out again and pointed to the
// student portal.
func (a *App) Login(ctx context.Context, username, password string) (Route, error) {
	resp, err := a.authenticate(ctx, username, password, a.api.Login)
	if err != nil {
		return RouteLogin, err
	}
	if !resp.Role.Staff() {
		if err := a.api.Logout(ctx); err != nil {
			a.log.Warn().Err(err).Msg("Revoking student token failed")
		}
		return RouteLogin, userError("Only staff accounts can log in here. Please use the student login page.", ErrWrongPortal)
	}
	return a.start(ctx, resp)
}

// StudentLogin signs in through the student portal.
func (a *App) StudentLogin(ctx context.Context, username, password string) (Route, error) {
	resp, err := a.authenticate(ctx, username, password, a.api.StudentLogin)
	if err != nil {
		return RouteStudentLogin, err
	}
	if resp.Role != model.RoleStudent {
		if err := a.api.Logout(ctx); err != nil {
			a.log.Warn().Err(err).Msg("Revoking staff token failed")
		}
		return RouteStudentLogin, userError("Invalid credentials or not a student account.", ErrWrongPortal)
	}
	return a.start(ctx, resp)
}

type loginFunc func(ctx context.Context, username, password string) (*model.LoginResponse, error)

func (a *App) authenticate(ctx context.Context, username, password string, login loginFunc) (*model.LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, userError("Please fill out all fields.", ErrIncomplete)
	}
	if a.Session().Valid() {
		a.Logout(ctx)
	}

	resp, err := login(ctx, username, password)
	if err != nil {
		a.log.Warn().Err(err).Str("username", username).Msg("Login failed")
		return nil, describe(err, "Failed to connect to the server.")
	}
	return resp, nil
}

func (a *App) start(ctx context.Context, resp *model.LoginResponse) (Route, error) {
	sess := session.New(resp.Username, resp.Role, resp.Token, a.opts.Now())
	log := a.log.With().Str("username", sess.Username()).Logger()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.sess = sess

	if sess.Role() == model.RoleStudent {
		a.student = NewStudentView(a.api, sess, log)
		if err := a.student.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial load failed")
		}
		return RouteStudentDashboard, nil
	}

	a.events = NewRosterEvents()
	roster, err := NewController(a.api, sess, a.events, ControllerOptions{SearchDebounce: a.opts.SearchDebounce, Log: log})
	if err != nil {
		return RouteLogin, err
	}
	a.roster = roster
	if sess.Can(session.ManageUsers) {
		a.users = NewUserManager(a.api, sess, log)
	}

	// Initial fetch, as on page mount.
	if err := roster.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		log.Warn().Err(err).Msg("Initial roster fetch failed")
	}
	if a.opts.Live {
		a.startWatchLocked(sess, log)
	}
	return RouteDashboard, nil
}

// startWatchLocked relays remote roster events into the invalidation
// channel. Events caused by this user were already handled locally.
func (a *App) startWatchLocked(sess *session.Session, log zerolog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.stopWatch = cancel
	a.watchDone = done
	events := a.events

	go func() {
		defer close(done)
		err := a.api.WatchRoster(ctx, nil, func(ev model.RosterEvent) {
			if ev.Actor == sess.Username() {
				return
			}
			if err := events.Invalidate(ctx, "remote "+string(ev.Type)); err != nil && !errors.Is(err, ErrSuperseded) {
				log.Warn().Err(err).Msg("Roster refetch after remote change failed")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("Roster stream closed")
		}
	}()
}

// Logout ends the session from any state. The server-side revoke is best
// effort; local state is always cleared.
func (a *App) Logout(ctx context.Context) Route {
	a.mu.Lock()
	sess := a.sess
	stop, done := a.stopWatch, a.watchDone
	if a.roster != nil {
		a.roster.Reset()
	}
	if a.users != nil {
		a.users.Reset()
	}
	if a.student != nil {
		a.student.Reset()
	}
	if a.events != nil {
		a.events.Unsubscribe()
	}
	a.sess, a.events, a.roster, a.users, a.student = nil, nil, nil, nil, nil
	a.stopWatch, a.watchDone = nil, nil
	a.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}

	route := RouteLogin
	if sess.Role() == model.RoleStudent {
		route = RouteStudentLogin
	}
	if sess != nil {
		sess.Invalidate()
		if err := a.api.Logout(ctx); err != nil {
			a.log.Warn().Err(err).Msg("Server-side logout failed")
		}
	}
	return route
}

// Session returns the current session, or nil when logged out.
func (a *App) Session() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess
}

// Navigate resolves path against the current session.
func (a *App) Navigate(path string) Route {
	return Resolve(path, a.Session())
}

// Roster returns the staff roster controller.
func (a *App) Roster() (*Controller, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.roster == nil {
		return nil, a.unavailableLocked(session.ViewRoster)
	}
	return a.roster, nil
}

// Users returns the admin user manager.
func (a *App) Users() (*UserManager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.users == nil {
		return nil, a.unavailableLocked(session.ManageUsers)
	}
	return a.users, nil
}

// StudentView returns the student's own page.
func (a *App) StudentView() (*StudentView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.student == nil {
		return nil, a.unavailableLocked(session.ViewOwnRecord)
	}
	return a.student, nil
}

func (a *App) unavailableLocked(action session.Action) error {
	if !a.sess.Valid() {
		return userError("Please log in first.", ErrNotLoggedIn)
	}
	return notPermitted(action.String())
}
