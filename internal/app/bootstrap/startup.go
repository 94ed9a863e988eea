// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/app/system/workers"
	"github.com/dalemusser/radhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, appCfg.BcryptCost, logger); err != nil {
			return err
		}
	}

	if appCfg.LoginFlagSweepInterval > 0 && deps.Background != nil {
		sweeper := workers.NewLoginFlagSweeper(
			userstore.New(deps.MongoDatabase),
			logger,
			appCfg.LoginFlagSweepInterval,
			appCfg.JWTExpiry,
		)
		sweeper.Start()
		deps.Background.setSweeper(sweeper)
	}

	return nil
}

// ensureSuperAdmin makes the configured email an active super_admin.
// An existing account is promoted; otherwise one is created, which needs a
// password.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, cost int, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		hash := ""
		if password != "" {
			if hash, err = passwords.Hash(password, cost); err != nil {
				return fmt.Errorf("hash superadmin password: %w", err)
			}
		}
		if err := users.Promote(ctx, existing.ID, hash); err != nil {
			return fmt.Errorf("promote superadmin: %w", err)
		}
		if existing.Role != roles.SuperAdmin {
			logger.Info("promoted existing user to super_admin",
				zap.String("email", existing.Email),
				zap.String("previous_role", existing.Role))
		}
		return nil

	case errors.Is(err, mongo.ErrNoDocuments):
		if password == "" {
			logger.Warn("superadmin_email has no account and superadmin_password is empty; skipping creation",
				zap.String("email", email))
			return nil
		}
		u, err := users.Create(ctx, userstore.NewUser{
			User: models.User{
				Email:    email,
				FullName: "Super Admin",
				Role:     roles.SuperAdmin,
				IsActive: true,
			},
			Password: password,
		}, cost)
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		logger.Info("created super_admin", zap.String("email", u.Email))
		return nil

	default:
		return fmt.Errorf("look up superadmin: %w", err)
	}
}
