package auth

import (
	"net/http"

	"github.com/mind-engage/lessonrunner/internal/rbac"
)

// AttachRole runs after JWTMiddleware. Subjects listed in admins are promoted
// to admin; tokens without a role claim fall back to learner.
func AttachRole(admins []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if sub == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			role := rbac.RoleFromContext(ctx)
			if _, ok := set[sub]; ok {
				role = rbac.RoleAdmin
			} else if role == "" {
				role = rbac.RoleLearner
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
