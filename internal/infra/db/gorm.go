package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var sslmodeRegex = regexp.MustCompile(`(?i)\bsslmode\s*=\s*\w+`)

func New(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	return db, nil
}

// DSN returns the configured DSN with sslmode forced to require when TLS is on.
func DSN(cfg *config.Config) string {
	dsn := cfg.Database.DSN
	if !cfg.Database.EnableTLS {
		return dsn
	}
	if sslmodeRegex.MatchString(dsn) {
		return sslmodeRegex.ReplaceAllString(dsn, "sslmode=require")
	}
	if !strings.HasSuffix(dsn, " ") {
		dsn += " "
	}
	return dsn + "sslmode=require"
}

// EnsureVectorExtension installs pgvector. The embedding table cannot be
// migrated without it.
func EnsureVectorExtension(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	return nil
}

// RegisterOpenTelemetryPlugin traces every query through tp.
func RegisterOpenTelemetryPlugin(db *gorm.DB, tp trace.TracerProvider) error {
	return db.Use(tracing.NewPlugin(tracing.WithTracerProvider(tp)))
}
