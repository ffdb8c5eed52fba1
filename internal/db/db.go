package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"storefront/internal/models"
)

// Config is the database section of the application config.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	LogQueries      bool
}

// Open connects to postgres. Duplicate key errors are translated to
// gorm.ErrDuplicatedKey.
func Open(cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("DB_DSN is empty (check your .env)")
	}
	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{log: log}, gormlogger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Ping checks the connection, used by /health.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the schema and seeds the moderator permissions.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Permission{},
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Version{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return SeedPermissions(ctx, db)
}

// SeedPermissions inserts the capability rows; existing codenames are kept.
func SeedPermissions(ctx context.Context, db *gorm.DB) error {
	perms := make([]models.Permission, 0, len(models.ModeratorPermissions))
	for _, code := range models.ModeratorPermissions {
		perms = append(perms, models.Permission{
			Codename: code,
			Name:     "Can " + strings.ReplaceAll(strings.TrimPrefix(code, "can_"), "_", " "),
		})
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "codename"}}, DoNothing: true}).
		Create(&perms).Error
}

// gormWriter routes gorm's logger into zerolog. gorm hands over only a
// format string, so the level is recovered from its markers: failed
// statements and "[error]" lines go out at Error, slow queries and "[warn]"
// at Warn, the rest at Debug.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	var ev *zerolog.Event
	switch {
	case strings.Contains(format, "[error]") || hasError(args):
		ev = w.log.Error()
	case strings.Contains(format, "[warn]") || strings.Contains(msg, "SLOW SQL"):
		ev = w.log.Warn()
	case strings.Contains(format, "[info]"):
		ev = w.log.Info()
	default:
		ev = w.log.Debug()
	}
	ev.Str("component", "gorm").Msg(msg)
}

func hasError(args []any) bool {
	for _, a := range args {
		if _, ok := a.(error); ok {
			return true
		}
	}
	return false
}
