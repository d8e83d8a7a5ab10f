package database

import (
	"errors"
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/kostkita/kostkita/backend/internal/payments"
	"github.com/kostkita/kostkita/backend/internal/rooms"
	"github.com/kostkita/kostkita/backend/internal/tenancy"
	"github.com/kostkita/kostkita/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	errMissingPath   = errors.New("database path is required")
	errMissingDSN    = errors.New("database dsn is required for postgres")
	errUnknownDriver = errors.New("unsupported database driver")
)

// Options selects the database backend and the optional seed data.
type Options struct {
	Driver    string
	Path      string
	DSN       string
	SeedAdmin bool
}

// Open connects to the configured database, migrates the schema and applies the seed migrations.
func Open(options Options, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := dialectorFor(options)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if options.Driver != DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&rooms.Room{}, &tenancy.Tenant{}, &payments.Payment{}, &users.User{}, &migrationRecord{}); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, seedMigrations(options), logger); err != nil {
		return nil, err
	}

	logger.Info("database initialized", zap.String("driver", options.Driver), zap.String("path", options.Path))
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(options Options) (gorm.Dialector, error) {
	switch options.Driver {
	case DriverSQLite, "":
		if options.Path == "" {
			return nil, errMissingPath
		}
		return sqlite.Open(options.Path), nil
	case DriverPostgres:
		if options.DSN == "" {
			return nil, errMissingDSN
		}
		return postgres.Open(options.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownDriver, options.Driver)
	}
}
