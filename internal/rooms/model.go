package rooms

import (
	"errors"
	"fmt"
	"strings"
)

// OccupancyStatus enumerates the occupancy states of a room.
type OccupancyStatus string

const (
	// OccupancyAvailable marks a room no tenant references.
	OccupancyAvailable OccupancyStatus = "Available"
	// OccupancyOccupied marks a room referenced by a tenant.
	OccupancyOccupied OccupancyStatus = "Occupied"
)

const maxIdentifierLength = 190

var (
	// ErrNotFound indicates the requested room does not exist.
	ErrNotFound = errors.New("rooms: room not found")
	// ErrConflict indicates a room with the same id already exists.
	ErrConflict = errors.New("rooms: room already exists")
	// ErrOccupied indicates the room is still referenced by a tenant.
	ErrOccupied = errors.New("rooms: room is occupied")
	// ErrInvalidRoom indicates the room payload failed validation.
	ErrInvalidRoom = errors.New("rooms: invalid room")
)

// Room models a rentable unit. OccupancyStatus is derived from tenant assignments and is
// written by the tenancy synchronizer only.
type Room struct {
	ID              string          `gorm:"column:id;primaryKey;size:190;not null"`
	Number          string          `gorm:"column:room_number;size:32;not null"`
	Type            string          `gorm:"column:room_type;size:64;not null"`
	MonthlyPrice    int64           `gorm:"column:monthly_price;not null"`
	Facilities      string          `gorm:"column:facilities;type:text;not null"`
	OccupancyStatus OccupancyStatus `gorm:"column:occupancy_status;size:16;not null;default:Available;index"`
	Floor           int             `gorm:"column:floor;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Room) TableName() string {
	return "rooms"
}

func (r Room) normalized() Room {
	r.ID = strings.TrimSpace(r.ID)
	r.Number = strings.TrimSpace(r.Number)
	r.Type = strings.TrimSpace(r.Type)
	r.Facilities = strings.TrimSpace(r.Facilities)
	return r
}

func (r Room) validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRoom)
	case len(r.ID) > maxIdentifierLength:
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidRoom, maxIdentifierLength)
	case r.Number == "":
		return fmt.Errorf("%w: empty room number", ErrInvalidRoom)
	case r.MonthlyPrice < 0:
		return fmt.Errorf("%w: negative monthly price", ErrInvalidRoom)
	}
	return nil
}
