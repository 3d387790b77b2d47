package core

import (
	"net/http"
	"slices"

	manifest "github.com/joeydtaylor/steeze-sinks/pkg/manifest"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/auth"
)

// withGuard enforces g. Users and roles imply authentication; the admin
// role passes any role list. Without an auth middleware only open guards pass.
func withGuard(next http.HandlerFunc, a *auth.Middleware, g manifest.Guard) http.HandlerFunc {
	restricted := g.RequireAuth || len(g.Users) > 0 || len(g.Roles) > 0
	if !restricted {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if a == nil || !a.IsAuthenticated(r.Context()) {
			writeError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		u := a.GetUser(r.Context())
		switch {
		case len(g.Users) > 0 && !slices.Contains(g.Users, u.Username):
			writeError(w, http.StatusForbidden, "forbidden", nil)
		case len(g.Roles) > 0 && !a.IsAdmin(r.Context()) && !slices.Contains(g.Roles, u.Role.Name):
			writeError(w, http.StatusForbidden, "forbidden", nil)
		default:
			next(w, r)
		}
	}
}
