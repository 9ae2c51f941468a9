// Package tokens offers unverified introspection of backend-issued
// bearer tokens for diagnostics. The authentication gate deliberately
// treats the token as opaque and checks presence only; this package
// exists so a developer can see what the backend issued (subject, role,
// expiry) without the client starting to act on claims it cannot verify.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info is the decoded, unverified view of a token.
type Info struct {
	Subject   string
	Role      string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the token's exp claim, if present, is in the
// past. Advisory only: the gate never consults this.
func (i *Info) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

// Inspect decodes a JWT without verifying its signature. Tokens that are
// not JWTs at all return an error; the rest of the client treats them as
// opaque strings regardless.
func Inspect(raw string) (*Info, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}

	info := &Info{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		info.IssuedAt = &t
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info, nil
}
