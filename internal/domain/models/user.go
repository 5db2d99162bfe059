// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles, from the widest scope to the narrowest.
const (
	RoleSuperAdmin          = "superadmin"
	RoleAreaManager         = "area_manager"
	RoleCityCoordinator     = "city_coordinator"
	RoleActivistCoordinator = "activist_coordinator"
)

// User represents every staff account that can sign in.
//
// NOTE:
//   - Supervisors (activist coordinators) are users with
//     RoleActivistCoordinator; their neighborhoods live in the
//     supervisor_assignments collection.
//   - Workers (activists) are not users; see Worker.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Title      string             `bson:"title,omitempty" json:"title,omitempty"`
	Role       string             `bson:"role" json:"role"`
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	PasswordHash       string `bson:"password_hash,omitempty" json:"-"`
	MustChangePassword bool   `bson:"must_change_password,omitempty" json:"-"`

	AreaID *primitive.ObjectID `bson:"area_id,omitempty" json:"area_id,omitempty"` // area managers
	CityID *primitive.ObjectID `bson:"city_id,omitempty" json:"city_id,omitempty"` // coordinators and supervisors

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

var roleLabels = map[string]string{
	RoleSuperAdmin:          "מנהל מערכת",
	RoleAreaManager:         "מנהל אזור",
	RoleCityCoordinator:     "רכז עיר",
	RoleActivistCoordinator: "רכז פעילים",
}

// RoleLabel returns the Hebrew display name of role.
func RoleLabel(role string) string {
	if l, ok := roleLabels[role]; ok {
		return l
	}
	return role
}
