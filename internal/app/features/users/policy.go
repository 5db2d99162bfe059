package users

import (
	"errors"

	"github.com/dalemusser/fieldops/internal/app/system/orgutil"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNotManaged = errors.New("user outside the caller's authority")

// visibleRoles lists the roles a manager may see; nil means every role.
// Supervisors are listed for coordinators so they can reset their
// passwords, but supervisors are created from the cascade.
func visibleRoles(actor string) []string {
	switch actor {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAreaManager:
		return []string{models.RoleCityCoordinator, models.RoleActivistCoordinator}
	case models.RoleCityCoordinator:
		return []string{models.RoleActivistCoordinator}
	}
	return []string{}
}

// creatableRoles lists the roles actor may create from /users/new.
func creatableRoles(actor string) []string {
	switch actor {
	case models.RoleSuperAdmin:
		return []string{models.RoleSuperAdmin, models.RoleAreaManager, models.RoleCityCoordinator}
	case models.RoleAreaManager:
		return []string{models.RoleCityCoordinator}
	}
	return nil
}

func allowed(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// needsCity reports whether role is tied to one city.
func needsCity(role string) bool {
	return role == models.RoleCityCoordinator || role == models.RoleActivistCoordinator
}

// canManage reports whether the caller (actor role, scope sc) may edit
// target. Superadmins manage everyone; the others only manage the roles
// below them inside their own cities.
func canManage(actor string, sc orgutil.Scope, target models.User) bool {
	if actor == models.RoleSuperAdmin {
		return true
	}
	roles := visibleRoles(actor)
	if roles == nil || !allowed(target.Role, roles) {
		return false
	}
	return target.CityID != nil && sc.HasCity(*target.CityID)
}

// listCities narrows the city filter of the list to the caller's scope.
func listCities(actor string, sc orgutil.Scope) []primitive.ObjectID {
	if actor == models.RoleSuperAdmin {
		return nil
	}
	return sc.CityFilter()
}
