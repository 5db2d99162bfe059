// internal/app/system/authz/roles.go
package authz

import (
	"net/http"
	"slices"
	"strings"
)

// Role is the signed-in user's role, lowercased. ok is false for anonymous
// requests.
func Role(r *http.Request) (role string, ok bool) {
	role, _, _, ok = UserCtx(r)
	return strings.ToLower(role), ok
}

// HasAnyRole is false for anonymous requests.
func HasAnyRole(r *http.Request, roles ...string) bool {
	cur, ok := Role(r)
	return ok && slices.ContainsFunc(roles, func(want string) bool {
		return strings.EqualFold(cur, strings.TrimSpace(want))
	})
}

func HasRole(r *http.Request, role string) bool { return HasAnyRole(r, role) }
