package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/kostkita/kostkita/backend/internal/database/dberr"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantsTable = "tenants"

// ServiceConfig describes the dependencies of the room service.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service exposes room inventory CRUD.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the room service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("rooms: database connection required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// List returns every room ordered by floor and number.
func (s *Service) List(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := s.db.WithContext(ctx).Order("floor ASC, room_number ASC").Find(&rooms).Error; err != nil {
		s.logger.Error("room list failed", zap.Error(err))
		return nil, err
	}
	return rooms, nil
}

// Get returns a single room.
func (s *Service) Get(ctx context.Context, roomID string) (Room, error) {
	var room Room
	err := s.db.WithContext(ctx).Where("id = ?", roomID).Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Room{}, fmt.Errorf("%w: %s", ErrNotFound, roomID)
	}
	if err != nil {
		s.logger.Error("room lookup failed", zap.String("room_id", roomID), zap.Error(err))
		return Room{}, err
	}
	return room, nil
}

// Create inserts a new room. New rooms always start Available regardless of the payload.
func (s *Service) Create(ctx context.Context, room Room) (Room, error) {
	room = room.normalized()
	if err := room.validate(); err != nil {
		return Room{}, err
	}
	room.OccupancyStatus = OccupancyAvailable

	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			return Room{}, fmt.Errorf("%w: %s", ErrConflict, room.ID)
		}
		s.logger.Error("room insert failed", zap.String("room_id", room.ID), zap.Error(err))
		return Room{}, err
	}
	return room, nil
}

// Update rewrites the descriptive fields of a room and returns the stored row.
// The occupancy status is left untouched.
func (s *Service) Update(ctx context.Context, roomID string, room Room) (Room, error) {
	room.ID = roomID
	room = room.normalized()
	if err := room.validate(); err != nil {
		return Room{}, err
	}

	var stored Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Room{}).Where("id = ?", room.ID).Updates(map[string]interface{}{
			"room_number":   room.Number,
			"room_type":     room.Type,
			"monthly_price": room.MonthlyPrice,
			"facilities":    room.Facilities,
			"floor":         room.Floor,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, room.ID)
		}
		return tx.Where("id = ?", room.ID).Take(&stored).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("room update failed", zap.String("room_id", room.ID), zap.Error(err))
		}
		return Room{}, err
	}
	return stored, nil
}

// Delete removes a room that no tenant references.
func (s *Service) Delete(ctx context.Context, roomID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock orders this delete against a concurrent claim of the same room.
		var locked Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", roomID).Take(&locked).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, roomID)
		}
		if err != nil {
			return err
		}

		var occupants int64
		if err := tx.Table(tenantsTable).Where("room_id = ?", roomID).Count(&occupants).Error; err != nil {
			return err
		}
		if occupants > 0 {
			return fmt.Errorf("%w: %s", ErrOccupied, roomID)
		}
		result := tx.Where("id = ?", roomID).Delete(&Room{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, roomID)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrOccupied) {
		s.logger.Error("room delete failed", zap.String("room_id", roomID), zap.Error(err))
	}
	return err
}
