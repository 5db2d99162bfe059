// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, ObjectID and a found
// flag. A missing user or a malformed id yields "visitor", "", NilObjectID,
// false, so ok=true always means a usable id.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// UserEmail returns the signed-in user's email, or "".
func UserEmail(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.Email
	}
	return ""
}

func IsSuperAdmin(r *http.Request) bool { return HasRole(r, models.RoleSuperAdmin) }

func IsAreaManager(r *http.Request) bool { return HasRole(r, models.RoleAreaManager) }

func IsCityCoordinator(r *http.Request) bool { return HasRole(r, models.RoleCityCoordinator) }

func IsActivistCoordinator(r *http.Request) bool {
	return HasRole(r, models.RoleActivistCoordinator)
}

// CanManageOrg reports whether the user may create or edit areas, cities
// and neighborhoods.
func CanManageOrg(r *http.Request) bool {
	return HasAnyRole(r, models.RoleSuperAdmin, models.RoleAreaManager)
}

// CanManageWorkers reports whether the user may create or edit workers.
func CanManageWorkers(r *http.Request) bool {
	return HasAnyRole(r, models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator)
}

// UserAreaID returns the area managed by an area manager.
func UserAreaID(r *http.Request) primitive.ObjectID {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID
	}
	return hexOrNil(u.AreaID)
}

// UserCityID returns the city of a coordinator or supervisor.
func UserCityID(r *http.Request) primitive.ObjectID {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID
	}
	return hexOrNil(u.CityID)
}

func hexOrNil(s string) primitive.ObjectID {
	if s == "" {
		return primitive.NilObjectID
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
