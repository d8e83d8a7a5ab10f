package database

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kostkita/kostkita/backend/internal/rooms"
	"github.com/kostkita/kostkita/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	migrationSeedDefaultAdmin = "seed_default_admin"
	migrationSeedSampleRooms  = "seed_sample_rooms"

	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@kostkita.com"
	defaultAdminPassword = "admin123"
	defaultAdminFullName = "Administrator"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

var sampleRooms = []rooms.Room{
	{ID: "room-1", Number: "101", Type: "Standard", MonthlyPrice: 1500000, Facilities: "AC, Kasur, Lemari", Floor: 1},
	{ID: "room-2", Number: "102", Type: "Superior", MonthlyPrice: 2000000, Facilities: "AC, Kasur, Lemari, TV", Floor: 1},
	{ID: "room-3", Number: "201", Type: "Deluxe", MonthlyPrice: 2500000, Facilities: "AC, Kasur, Lemari, TV, Kulkas", Floor: 2},
	{ID: "room-4", Number: "202", Type: "Standard", MonthlyPrice: 1500000, Facilities: "AC, Kasur, Lemari", Floor: 2},
	{ID: "room-5", Number: "301", Type: "Superior", MonthlyPrice: 2000000, Facilities: "AC, Kasur, Lemari, TV", Floor: 3},
}

// seedMigrations lists the one-shot migrations enabled by the options. A disabled seed is not
// recorded, so enabling it later still applies it once.
func seedMigrations(options Options) []migrationDefinition {
	migrations := make([]migrationDefinition, 0, 2)
	if options.SeedAdmin {
		migrations = append(migrations, migrationDefinition{name: migrationSeedDefaultAdmin, apply: seedDefaultAdmin})
	}
	migrations = append(migrations, migrationDefinition{name: migrationSeedSampleRooms, apply: seedSampleRooms})
	return migrations
}

func applyMigrations(db *gorm.DB, migrations []migrationDefinition, logger *zap.Logger) error {
	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := migration.apply(tx); err != nil {
				return err
			}
			appliedAt := time.Now().UTC().Unix()
			return tx.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error
		})
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func seedDefaultAdmin(db *gorm.DB) error {
	hash, err := users.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}
	admin := users.User{
		ID:           uuid.NewString(),
		Username:     defaultAdminUsername,
		Email:        defaultAdminEmail,
		PasswordHash: hash,
		FullName:     defaultAdminFullName,
		Role:         users.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error
}

func seedSampleRooms(db *gorm.DB) error {
	seeded := make([]rooms.Room, len(sampleRooms))
	for index, room := range sampleRooms {
		room.OccupancyStatus = rooms.OccupancyAvailable
		seeded[index] = room
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seeded).Error
}
