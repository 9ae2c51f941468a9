// Package app wires the client core together: the screen registry, the
// sign-in/sign-out flows, and the mount/focus pipeline that applies the
// authentication gate and the role guard before anything renders.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicure/medicure/internal/backend"
	"github.com/medicure/medicure/internal/gate"
	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
)

// ErrNoBackend is returned by the auth flows when no backend URL was
// configured; the local screens still work, sign-in does not.
var ErrNoBackend = errors.New("app: no backend configured (set MEDICURE_BACKEND_URL)")

// App is the client core a shell drives.
type App struct {
	sessions     *session.Manager
	backend      *backend.Client
	nav          navigation.Navigator
	checkTimeout time.Duration
	screens      map[string]Screen
	log          zerolog.Logger
}

// New builds an App over the given collaborators. client may be nil for
// offline use.
func New(sessions *session.Manager, client *backend.Client, nav navigation.Navigator, checkTimeout time.Duration, log zerolog.Logger) *App {
	a := &App{
		sessions:     sessions,
		backend:      client,
		nav:          nav,
		checkTimeout: checkTimeout,
		screens:      make(map[string]Screen),
		log:          log,
	}
	for _, s := range DefaultScreens() {
		a.screens[s.Name] = s
	}
	return a
}

// Navigator exposes the screen history, primarily for the shell's status
// output.
func (a *App) Navigator() navigation.Navigator {
	return a.nav
}

// ScreenNames lists registered screens in registration order.
func (a *App) ScreenNames() []string {
	names := make([]string, 0, len(a.screens))
	for _, s := range DefaultScreens() {
		if _, ok := a.screens[s.Name]; ok {
			names = append(names, s.Name)
		}
	}
	return names
}

// SignIn authenticates against the backend and establishes the local
// session. On success navigation is reset to the role's home destination
// and that destination is returned.
func (a *App) SignIn(ctx context.Context, email, password string) (navigation.Route, error) {
	if a.backend == nil {
		return "", ErrNoBackend
	}
	creds, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	return a.establish(ctx, creds)
}

// SignUp creates an account and, when the backend issues credentials
// immediately, establishes the session.
func (a *App) SignUp(ctx context.Context, req backend.SignupRequest) (navigation.Route, error) {
	if a.backend == nil {
		return "", ErrNoBackend
	}
	creds, err := a.backend.Signup(ctx, req)
	if err != nil {
		return "", err
	}
	return a.establish(ctx, creds)
}

// VerifyOTP completes an OTP challenge and establishes the session.
func (a *App) VerifyOTP(ctx context.Context, email, code string) (navigation.Route, error) {
	if a.backend == nil {
		return "", ErrNoBackend
	}
	creds, err := a.backend.VerifyOTP(ctx, email, code)
	if err != nil {
		return "", err
	}
	return a.establish(ctx, creds)
}

// establish stores the credentials as the local session and resets
// navigation to the role's home. All five keys are written together; a
// persistent write failure aborts the sign-in so the user is told instead
// of ending up with a session the gate cannot see.
func (a *App) establish(ctx context.Context, creds *backend.Credentials) (navigation.Route, error) {
	sess := session.Session{
		Token:  creds.Token,
		Role:   creds.Role,
		UserID: creds.UserID,
		Name:   creds.Name,
		Email:  creds.Email,
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		return "", err
	}

	route := navigation.Resolve(creds.Role)
	a.nav.Reset(route)
	a.log.Info().
		Str("user_id", creds.UserID).
		Stringer("role", navigation.ParseRole(creds.Role)).
		Str("destination", string(route)).
		Msg("signed in")
	return route, nil
}

// SignOut revokes the identity-provider session best-effort, deletes all
// session keys, and resets navigation to the landing screen. A failed
// revoke is logged and ignored; a failed local delete is returned because
// stale credentials would still satisfy the gate on next launch.
func (a *App) SignOut(ctx context.Context) error {
	token, err := a.sessions.Token(ctx)
	if err != nil {
		// Unreadable store: still attempt the local wipe below.
		a.log.Warn().Err(err).Msg("could not read token during sign-out")
		token = ""
	}

	if token != "" && a.backend != nil {
		if err := a.backend.Revoke(ctx, token); err != nil {
			a.log.Warn().Err(err).Msg("identity-provider sign-out failed, clearing local session anyway")
		}
	}

	if err := a.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	a.nav.Reset(navigation.RouteLanding)
	a.log.Info().Msg("signed out")
	return nil
}

// Whoami returns the current session snapshot.
func (a *App) Whoami(ctx context.Context) (session.Session, error) {
	return a.sessions.Load(ctx)
}

// Result is the outcome of opening a screen.
type Result struct {
	// Text is what the shell prints.
	Text string
	// State is the gate outcome; public screens report authenticated.
	State gate.State
	// Redirect is set when the role guard denied and its single recovery
	// action was taken.
	Redirect navigation.Route
}

// Open mounts the named screen: push it, run the authentication gate,
// then the role guard, then render. A gate failure has already reset
// navigation to the landing screen by the time Open returns. A guard
// denial renders the fallback message and takes its single recovery
// action, landing the viewer on their own home.
func (a *App) Open(ctx context.Context, name string) (Result, error) {
	scr, ok := a.screens[name]
	if !ok {
		return Result{}, fmt.Errorf("unknown screen %q", name)
	}

	if scr.Public() {
		a.nav.Push(scr.Route)
		sess, err := a.sessions.Load(ctx)
		if err != nil {
			sess = session.Session{}
		}
		return Result{Text: scr.Render(sess), State: gate.StateAuthenticated}, nil
	}

	a.nav.Push(scr.Route)

	g := gate.New(a.sessions, a.nav, gate.Config{CheckTimeout: a.checkTimeout}, a.log)
	defer g.Close()
	if state := g.Check(ctx); state != gate.StateAuthenticated {
		return Result{
			Text:  "You've been signed out. Please sign in again.",
			State: state,
		}, nil
	}

	guard := gate.NewRoleGuard(a.sessions, scr.Allowed, scr.Message, a.log)
	if d := guard.Evaluate(ctx); !d.Allowed {
		a.nav.Reset(d.Redirect)
		return Result{
			Text:     d.Message,
			State:    gate.StateAuthenticated,
			Redirect: d.Redirect,
		}, nil
	}

	sess, err := a.sessions.Load(ctx)
	if err != nil {
		sess = session.Session{}
	}
	return Result{Text: scr.Render(sess), State: gate.StateAuthenticated}, nil
}

// WatchScreen keeps the named screen "focused": it opens it once, then
// re-opens it on every session change notification, mirroring the
// re-check-on-focus contract. It returns when the gate fails (navigation
// already reset), when changes closes, or when ctx is done.
func (a *App) WatchScreen(ctx context.Context, name string, changes <-chan struct{}, out io.Writer) error {
	res, err := a.Open(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Text)
	if res.State != gate.StateAuthenticated {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			res, err := a.Open(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Text)
			if res.State != gate.StateAuthenticated {
				return nil
			}
		}
	}
}
