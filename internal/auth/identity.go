package auth

import (
	"context"
	"strings"
)

const fallbackDisplayName = "My account"

// Identity is the signed-in user as the rest of the site sees it.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	Admin       bool
}

func IdentityFromClaims(c *Claims) Identity {
	return Identity{
		UID:         c.UserID,
		DisplayName: DisplayName(c.Name, c.Email),
		Email:       c.Email,
		Admin:       c.IsAdmin(),
	}
}

// DisplayName prefers the profile name, then the e-mail local part.
func DisplayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	return fallbackDisplayName
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UID != ""
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UID
}
