// Package gate enforces role-based access to screens: the authentication
// gate sends sessionless users back to the public landing screen, and the
// role guard restricts individual screens to an allow-listed set of
// roles. Both are advisory, client-side checks; every backend call is
// still authorized server-side on its own.
package gate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
)

// State is the per-screen authentication check state.
type State int

const (
	// StateChecking is the initial state on mount and on every re-focus.
	StateChecking State = iota
	// StateAuthenticated means a token was present; render the screen.
	StateAuthenticated
	// StateUnauthenticated means the check failed and navigation was
	// reset to the landing screen.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "invalid"
}

// DefaultCheckTimeout bounds a single session read. A store that hangs
// past it counts as a failed read, so the screen cannot sit in checking
// forever.
const DefaultCheckTimeout = 3 * time.Second

// Config carries the gate's tunables. The zero value is usable.
type Config struct {
	// CheckTimeout bounds the token read; zero means DefaultCheckTimeout.
	CheckTimeout time.Duration
	// Landing is the destination of the forced reset; zero means
	// navigation.RouteLanding.
	Landing navigation.Route
}

func (c Config) checkTimeout() time.Duration {
	if c.CheckTimeout <= 0 {
		return DefaultCheckTimeout
	}
	return c.CheckTimeout
}

func (c Config) landing() navigation.Route {
	if c.Landing == "" {
		return navigation.RouteLanding
	}
	return c.Landing
}

// Gate guards one screen instance. Check runs on mount and again on every
// focus event; any outcome other than a readable, non-empty token fails
// closed: the state becomes unauthenticated and the navigation history is
// reset to the landing screen so the back gesture cannot reach the
// protected screen again.
//
// The gate never inspects the token beyond presence. Expiry is discovered
// server-side when an authenticated request is rejected; see DESIGN.md.
type Gate struct {
	sessions *session.Manager
	nav      navigation.Navigator
	cfg      Config
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

// New returns a gate for one screen instance.
func New(sessions *session.Manager, nav navigation.Navigator, cfg Config, log zerolog.Logger) *Gate {
	return &Gate{
		sessions: sessions,
		nav:      nav,
		cfg:      cfg,
		log:      log,
		state:    StateChecking,
	}
}

// Check runs the authentication check and returns the resulting state.
// Call it on mount and on every focus event. A closed gate performs no
// navigation and reports unauthenticated.
func (g *Gate) Check(ctx context.Context) State {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return StateUnauthenticated
	}
	g.state = StateChecking
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.checkTimeout())
	defer cancel()

	type result struct {
		token string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		token, err := g.sessions.Token(ctx)
		ch <- result{token, err}
	}()

	var token string
	select {
	case <-ctx.Done():
		// A hung store read counts as a failed read.
		g.log.Warn().Err(ctx.Err()).Msg("session check timed out, failing closed")
	case res := <-ch:
		if res.err != nil {
			g.log.Warn().Err(res.err).Msg("session read failed, failing closed")
		} else {
			token = res.token
		}
	}

	if token == "" {
		return g.deny()
	}
	return g.allow()
}

// State returns the gate's current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Close marks the owning screen as gone. Any check still in flight
// resolves without touching navigation, so an unmounted screen cannot
// yank the user around.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *Gate) allow() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return StateUnauthenticated
	}
	g.state = StateAuthenticated
	return g.state
}

func (g *Gate) deny() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return StateUnauthenticated
	}
	g.state = StateUnauthenticated
	// Reset, never push: the landing screen must become the sole history
	// entry.
	g.nav.Reset(g.cfg.landing())
	return g.state
}
