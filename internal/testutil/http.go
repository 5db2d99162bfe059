package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/fieldops/internal/app/system/auth"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser is a signed-in user for handler tests.
type TestUser struct {
	ID     string
	Name   string
	Email  string
	Role   string
	AreaID string
	CityID string
}

// SuperAdmin returns a superadmin test user.
func SuperAdmin() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "מנהל מערכת", Email: "admin@test.local", Role: models.RoleSuperAdmin}
}

// AreaManager returns an area manager of areaID.
func AreaManager(areaID primitive.ObjectID) TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "מנהל אזור", Email: "area@test.local", Role: models.RoleAreaManager, AreaID: areaID.Hex()}
}

// CityCoordinator returns a coordinator of cityID.
func CityCoordinator(cityID primitive.ObjectID) TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "רכז עיר", Email: "city@test.local", Role: models.RoleCityCoordinator, CityID: cityID.Hex()}
}

// Supervisor returns an activist coordinator with the given user id.
func Supervisor(userID, cityID primitive.ObjectID) TestUser {
	return TestUser{ID: userID.Hex(), Name: "רכז פעילים", Email: "sup@test.local", Role: models.RoleActivistCoordinator, CityID: cityID.Hex()}
}

// WithUser injects user into the request context, bypassing the session.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		AreaID: user.AreaID,
		CityID: user.CityID,
	})
}

// NewRequest creates a request with no body.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewFormRequest creates a urlencoded POST request.
func NewFormRequest(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// NewJSONRequest creates a POST request with a JSON body.
func NewJSONRequest(target, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	return r
}
