package rbac

import (
	"context"
	"strings"
)

// Policy grants permissions to roles. A grant is either an exact
// "resource:action" permission, a resource wildcard like "lesson:*", or "*".
type Policy map[string][]string

func (p Policy) Allows(role, perm string) bool {
	resource, _, _ := strings.Cut(perm, ":")
	for _, g := range p[role] {
		switch g {
		case "*", perm, resource + ":*":
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
