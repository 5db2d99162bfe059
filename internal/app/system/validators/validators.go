// Package validators creates the fieldops collections and attaches
// $jsonSchema validators to the ones holding org structure and attendance.
package validators

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dalemusser/fieldops/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collections lists every collection fieldops writes. A nil schema means the
// collection is created but left unvalidated.
var collections = []struct {
	name   string
	schema func() bson.M
}{
	{"users", usersSchema},
	{"areas", areasSchema},
	{"cities", citiesSchema},
	{"neighborhoods", neighborhoodsSchema},
	{"supervisor_assignments", supervisorAssignmentsSchema},
	{"workers", workersSchema},
	{"attendance", attendanceSchema},
	{"audit_log", auditLogSchema},
	{"error_logs", nil},
	{"notifications", nil},
	{"tasks", nil},
	{"wiki_pages", nil},
	{"push_subscriptions", nil},
	{"login_records", nil},
}

// EnsureAll is idempotent. Deployments without collMod (some DocumentDB
// versions) get their collections but no validators.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		zap.L().Warn("list collections failed, creating blindly", zap.Error(err))
	}

	var problems []error
	for _, c := range collections {
		if err := ensureCollection(ctx, db, c.name, slices.Contains(existing, c.name)); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		if c.schema == nil {
			continue
		}
		err := setValidator(ctx, db, c.name, c.schema())
		switch {
		case err == nil:
			zap.L().Info("validator ensured", zap.String("collection", c.name))
		case unsupported(err):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(problems...)
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, exists bool) error {
	if exists {
		return nil
	}
	err := db.CreateCollection(ctx, name)
	switch {
	case err == nil:
		zap.L().Info("created collection", zap.String("collection", name))
		return nil
	case commandFailed(err, []int32{48}, "already exists", "namespace exists"):
		// Lost a race with another instance starting up.
		return nil
	default:
		return err
	}
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}).Err()
}

// unsupported matches servers that lack collMod or document validation.
func unsupported(err error) bool {
	return commandFailed(err, []int32{59, 115}, "no such command", "not implemented", "not supported")
}

// commandFailed reports whether err is a command error with one of codes, or
// mentions one of phrases.
func commandFailed(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && slices.Contains(codes, ce.Code) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(phrases, func(p string) bool { return strings.Contains(msg, p) })
}

// nonBlank matches a string with at least one non-space character.
func nonBlank() bson.M {
	return bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
}

func statusEnum() bson.M {
	return bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role"},
			"properties": bson.M{
				"full_name":    nonBlank(),
				"full_name_ci": nonBlank(),
				"email":        nonBlank(),
				"role": bson.M{"enum": bson.A{
					models.RoleSuperAdmin,
					models.RoleAreaManager,
					models.RoleCityCoordinator,
					models.RoleActivistCoordinator,
				}},
				"status":  statusEnum(),
				"area_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"city_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func areasSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"region_name", "region_name_ci", "status"},
			"properties": bson.M{
				"region_name":    nonBlank(),
				"region_name_ci": nonBlank(),
				"status":         statusEnum(),
			},
		},
	}
}

func citiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "area_manager_id", "status"},
			"properties": bson.M{
				"name":            nonBlank(),
				"name_ci":         nonBlank(),
				"area_manager_id": bson.M{"bsonType": "objectId"},
				"status":          statusEnum(),
			},
		},
	}
}

func neighborhoodsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "city_id", "status"},
			"properties": bson.M{
				"name":    nonBlank(),
				"name_ci": nonBlank(),
				"city_id": bson.M{"bsonType": "objectId"},
				"status":  statusEnum(),
			},
		},
	}
}

func supervisorAssignmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"neighborhood_id", "user_id", "city_id"},
			"properties": bson.M{
				"neighborhood_id": bson.M{"bsonType": "objectId"},
				"user_id":         bson.M{"bsonType": "objectId"},
				"city_id":         bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func workersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "full_name_ci", "neighborhood_id", "city_id", "supervisor_id", "status"},
			"properties": bson.M{
				"full_name":       nonBlank(),
				"full_name_ci":    nonBlank(),
				"neighborhood_id": bson.M{"bsonType": "objectId"},
				"city_id":         bson.M{"bsonType": "objectId"},
				"supervisor_id":   bson.M{"bsonType": "objectId"},
				"status":          statusEnum(),
			},
		},
	}
}

func attendanceSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"date", "worker_id", "site_id", "city_id", "status"},
			"properties": bson.M{
				"date":      bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
				"worker_id": bson.M{"bsonType": "objectId"},
				"site_id":   bson.M{"bsonType": "objectId"},
				"city_id":   bson.M{"bsonType": "objectId"},
				"status":    bson.M{"enum": bson.A{models.AttendancePresent, models.AttendanceAbsent}},
			},
		},
	}
}

func auditLogSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"entity", "action", "created_at"},
			"properties": bson.M{
				"entity":     nonBlank(),
				"action":     nonBlank(),
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
