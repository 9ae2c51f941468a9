package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medicure/medicure/internal/navigation"
)

// Storage keys for the five session values. They are written together at
// login/signup/OTP completion and deleted together at sign-out; a
// transiently partial session (token without role) must degrade to
// role-unknown, never to a role-specific grant.
const (
	KeyAuthToken = "auth_token"
	KeyUserRole  = "user_role"
	KeyUserID    = "user_id"
	KeyUserName  = "user_name"
	KeyUserEmail = "user_email"
)

// Keys lists every session storage key. Sign-out deletes exactly this set.
var Keys = []string{KeyAuthToken, KeyUserRole, KeyUserID, KeyUserName, KeyUserEmail}

// Session is a point-in-time snapshot of the stored session values. The
// token alone decides authentication; the remaining fields are meaningless
// without it.
type Session struct {
	Token  string
	Role   string
	UserID string
	Name   string
	Email  string
}

// Authenticated reports whether the snapshot carries a token. No expiry
// check happens client-side; the backend is the source of truth on expiry
// and rejects stale tokens on its own.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// RoleKnown reports whether the stored role is a member of the closed
// role set.
func (s Session) RoleKnown() bool {
	return navigation.ParseRole(s.Role) != navigation.RoleUnknown
}

// Manager is the session-context object screens are handed instead of
// reaching into the store directly. It owns the key layout and the
// together-or-not-at-all write and clear semantics.
type Manager struct {
	store Store
	log   zerolog.Logger
}

func NewManager(store Store, log zerolog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Token reads the auth token. Absence is reported as ("", nil); any other
// store failure is returned so the gate can fail closed on it.
func (m *Manager) Token(ctx context.Context) (string, error) {
	v, err := m.store.Get(ctx, KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading auth token: %w", err)
	}
	return v, nil
}

// Load reads the full session snapshot. A failed token read is returned
// as an error; failures on the remaining keys degrade to empty values so
// a partial or half-written session reads as role-unknown rather than
// blowing up a screen.
func (m *Manager) Load(ctx context.Context) (Session, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return Session{}, err
	}

	sess := Session{Token: token}
	sess.Role = m.readOrEmpty(ctx, KeyUserRole)
	sess.UserID = m.readOrEmpty(ctx, KeyUserID)
	sess.Name = m.readOrEmpty(ctx, KeyUserName)
	sess.Email = m.readOrEmpty(ctx, KeyUserEmail)
	return sess, nil
}

func (m *Manager) readOrEmpty(ctx context.Context, key string) string {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Warn().Err(err).Str("key", key).Msg("session read degraded to empty")
		}
		return ""
	}
	return v
}

// Save persists all five session values. Each write is retried once; a
// write that fails twice aborts the save and is surfaced to the caller so
// the user can be told instead of silently proceeding with a session the
// gate will not see.
func (m *Manager) Save(ctx context.Context, sess Session) error {
	values := map[string]string{
		KeyAuthToken: sess.Token,
		KeyUserRole:  sess.Role,
		KeyUserID:    sess.UserID,
		KeyUserName:  sess.Name,
		KeyUserEmail: sess.Email,
	}

	for _, key := range Keys {
		if err := m.setWithRetry(ctx, key, values[key]); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	return nil
}

func (m *Manager) setWithRetry(ctx context.Context, key, value string) error {
	err := m.store.Set(ctx, key, value)
	if err == nil {
		return nil
	}
	m.log.Warn().Err(err).Str("key", key).Msg("session write failed, retrying once")
	if err := m.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Clear deletes all five session values. Clearing an already-empty store
// succeeds, so repeated sign-outs are harmless. Every key is attempted
// even if an earlier delete fails; the combined error is returned because
// a failed sign-out leaves credentials the gate would still honor.
func (m *Manager) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range Keys {
		if err := m.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("clearing session: %w", errors.Join(errs...))
	}
	return nil
}
