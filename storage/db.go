// Package storage is the persistence boundary for the AI orchestration
// subsystem: gorm models and accessors for the entities this subsystem
// owns (credentials, feature settings, preferences, usage records), plus
// read-only reader interfaces for the entities it only consults (time
// entries, projects, payroll periods) — the relational schema and its
// CRUD surface otherwise belong to the collaborator application (spec §1).
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/driftlog/aiops/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open establishes a gorm.DB connection for the configured driver and
// tunes the underlying connection pool, grounded on the teacher's
// database pool-manager conventions.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := tunePool(db, cfg); err != nil {
		return nil, err
	}

	logger.Info("storage connected", zap.String("driver", cfg.Driver))
	return db, nil
}

func tunePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	return nil
}

// AutoMigrate creates/updates the tables this subsystem owns. It never
// touches tables owned by the collaborator application.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProviderCredentialModel{},
		&FeatureSettingModel{},
		&UserFeaturePreferenceModel{},
		&UsageRecordModel{},
	)
}

// verify sql.DB stays imported for callers that need low-level access
// (e.g. health checks) without re-deriving it from *gorm.DB.
var _ = (*sql.DB)(nil)
