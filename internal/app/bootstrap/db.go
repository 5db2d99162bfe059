// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/fieldops/internal/app/store/users"
	"github.com/dalemusser/fieldops/internal/app/system/indexes"
	"github.com/dalemusser/fieldops/internal/app/system/timeouts"
	"github.com/dalemusser/fieldops/internal/app/system/validators"
	"github.com/dalemusser/fieldops/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
// Transactions need a replica set; the attendance and cascade writes fail
// on a standalone server, so a failed ping aborts startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("fieldops").
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		bg:            &background{},
	}, nil
}

// EnsureSchema creates the collections with their JSON-Schema validators,
// every collection's indexes and the configured superadmin. Collections
// must exist before the first transaction writes to them.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("collection setup failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin creates the superadmin account, or promotes the user
// who already has the email. The account has no password; it signs in
// with Google until one is set.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := users.EnsureSuperAdmin(ctx, email, "")
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		if created {
			logger.Info("superadmin created", zap.String("email", email))
		}
		return nil
	case err != nil:
		return fmt.Errorf("load superadmin: %w", err)
	}

	if u.Role == models.RoleSuperAdmin && u.Status != models.StatusDisabled {
		return nil
	}
	if err := users.PromoteSuperAdmin(ctx, u.ID); err != nil {
		return fmt.Errorf("promote superadmin: %w", err)
	}
	logger.Info("user promoted to superadmin",
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}
