// Package gates checks the caller's role inside a handler and renders the
// error page itself when the check fails.
//
// Authorization in fieldops happens at three levels. Route groups apply
// auth.RequireSignedIn and auth.RequireRole. Handlers whose requirement is
// narrower than their group's use a gate from this package. Finally
// orgutil.Resolve turns the user into a Scope, and the handler asks the scope
// whether a particular city or neighborhood is within reach.
//
// A handler already behind RequireRole for the same roles should read
// authz.UserCtx instead of gating twice.
package gates

import (
	"net/http"
	"slices"

	uierrors "github.com/dalemusser/fieldops/internal/app/features/errors"
	"github.com/dalemusser/fieldops/internal/app/system/authz"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result is the caller as seen by a gate. OK is false when the gate has
// already written an error page.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// Org structure editors: areas, cities, neighborhoods and their staff.
var orgManagers = []string{models.RoleSuperAdmin, models.RoleAreaManager}

// Roles that create and edit workers directly.
var workerManagers = []string{models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator}

// RequireAuth renders 401 with a link to loginURL for anonymous callers.
func RequireAuth(w http.ResponseWriter, r *http.Request, loginURL string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, loginURL)
		return Result{}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

func RequireSuperAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	return RequireAnyRole(w, r, forbiddenMsg, fallbackURL, models.RoleSuperAdmin)
}

func RequireOrgManager(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	return RequireAnyRole(w, r, forbiddenMsg, fallbackURL, orgManagers...)
}

func RequireWorkerManager(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string) Result {
	return RequireAnyRole(w, r, forbiddenMsg, fallbackURL, workerManagers...)
}

// RequireAnyRole renders 401 for anonymous callers and 403 with forbiddenMsg
// for signed-in callers whose role is not listed.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg, fallbackURL string, roles ...string) Result {
	res := RequireAuth(w, r, "/login")
	if !res.OK {
		return res
	}
	if !slices.Contains(roles, res.Role) {
		uierrors.RenderForbidden(w, r, forbiddenMsg, fallbackURL)
		return Result{}
	}
	return res
}
