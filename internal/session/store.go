// Package session persists the signed-in user's credentials on the
// device: a small set of named string keys behind a Store interface,
// written by the login/signup/OTP flows and read by the authentication
// gate on every protected screen mount and focus.
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get for a key with no stored value.
// Absence is an expected state, not a failure; callers branch on it with
// errors.Is.
var ErrNotFound = errors.New("session: key not found")

// Store is a named-string key-value store scoped to the installed app
// instance. Implementations must treat Set as overwrite and Delete of an
// absent key as success. Get never panics for a missing key; it returns
// ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
