package gate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
)

// DefaultDeniedMessage is shown when a guard rejects a viewer and no
// screen-specific message was configured.
const DefaultDeniedMessage = "You don't have access to this screen."

// Decision is the outcome of a role-guard evaluation. Exactly one of the
// two renderings applies: the wrapped content when Allowed, otherwise the
// fallback message with a single action leading to Redirect.
type Decision struct {
	Allowed  bool
	Message  string
	Redirect navigation.Route
}

// RoleGuard restricts a screen to an allow-listed set of roles within an
// already-authenticated session. It is evaluated on mount and whenever
// the stored role may have changed; it never polls.
type RoleGuard struct {
	sessions *session.Manager
	allowed  map[navigation.Role]bool
	message  string
	log      zerolog.Logger
}

// NewRoleGuard builds a guard allowing the given roles. message may be
// empty, in which case DefaultDeniedMessage is used on denial.
func NewRoleGuard(sessions *session.Manager, allowed []navigation.Role, message string, log zerolog.Logger) *RoleGuard {
	set := make(map[navigation.Role]bool, len(allowed))
	for _, r := range allowed {
		set[r] = true
	}
	if message == "" {
		message = DefaultDeniedMessage
	}
	return &RoleGuard{sessions: sessions, allowed: set, message: message, log: log}
}

// Evaluate reads the stored role and decides. A missing or unrecognized
// role is never a member of the allow-list, so partial sessions and
// unknown roles always fall back; their redirect is the landing screen
// since no role-specific home exists for them. A readable, recognized
// role that simply is not allowed here redirects to its own home so the
// single recovery action puts the viewer somewhere meaningful.
func (rg *RoleGuard) Evaluate(ctx context.Context) Decision {
	sess, err := rg.sessions.Load(ctx)
	if err != nil {
		rg.log.Warn().Err(err).Msg("role guard session read failed, denying")
		return Decision{Message: rg.message, Redirect: navigation.RouteLanding}
	}

	role := navigation.ParseRole(sess.Role)
	if rg.allowed[role] {
		return Decision{Allowed: true}
	}

	rg.log.Debug().Stringer("role", role).Msg("role not permitted for screen")
	return Decision{Message: rg.message, Redirect: navigation.HomeRoute(role)}
}
