package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describes a Postgres connection. DatabaseURL wins over the
// individual fields when set.
type Options struct {
	DatabaseURL string
	Host        string
	User        string
	Password    string
	Name        string
	Port        string
	SSLMode     string
	Debug       bool
}

func (o Options) DSN() string {
	if o.DatabaseURL != "" {
		return o.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		o.Host, o.User, o.Password, o.Name, o.Port, o.SSLMode,
	)
}

// Config returns the gorm settings shared by every dialect. Foreign keys are
// not created: referential cleanup is done by the deletion orchestrator and
// dangling references are tolerated. Driver errors are translated so unique
// violations surface as gorm.ErrDuplicatedKey.
func Config(debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(level),
	}
}

func Connect(opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opts.DSN()), Config(opts.Debug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	slog.Info("database connected", "host", opts.Host, "name", opts.Name)
	return db, nil
}
