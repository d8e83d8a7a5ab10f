package tenancy

import (
	"fmt"
	"strings"
)

const maxIdentifierLength = 190

// Tenant models a persisted tenant. RoomID is nil while the tenant holds no room.
type Tenant struct {
	ID               string  `gorm:"column:id;primaryKey;size:190;not null"`
	Name             string  `gorm:"column:name;size:190;not null"`
	Email            string  `gorm:"column:email;size:320;not null"`
	Phone            string  `gorm:"column:phone;size:64;not null"`
	Occupation       string  `gorm:"column:occupation;size:190;not null"`
	EmergencyContact string  `gorm:"column:emergency_contact;size:190;not null"`
	MoveInDateMillis int64   `gorm:"column:move_in_date;not null"`
	RoomID           *string `gorm:"column:room_id;size:190;index"`
}

// TableName provides the explicit table binding for GORM.
func (Tenant) TableName() string {
	return "tenants"
}

// TenantView is a tenant joined with the descriptive fields of its assigned room.
// The room fields are nil for unassigned tenants.
type TenantView struct {
	Tenant
	RoomNumber   *string `gorm:"column:room_number"`
	RoomType     *string `gorm:"column:room_type"`
	MonthlyPrice *int64  `gorm:"column:monthly_price"`
}

func (t Tenant) normalized() Tenant {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Email = strings.TrimSpace(t.Email)
	t.Phone = strings.TrimSpace(t.Phone)
	t.Occupation = strings.TrimSpace(t.Occupation)
	t.EmergencyContact = strings.TrimSpace(t.EmergencyContact)
	t.RoomID = normalizeRoomID(t.RoomID)
	return t
}

func (t Tenant) validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidTenant)
	case len(t.ID) > maxIdentifierLength:
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidTenant, maxIdentifierLength)
	case t.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidTenant)
	case t.RoomID != nil && len(*t.RoomID) > maxIdentifierLength:
		return fmt.Errorf("%w: room id exceeds %d characters", ErrInvalidTenant, maxIdentifierLength)
	}
	return nil
}

// normalizeRoomID treats a blank room reference as unassigned.
func normalizeRoomID(roomID *string) *string {
	if roomID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*roomID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameRoom(left, right *string) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	return *left == *right
}

func roomLabel(roomID *string) string {
	if roomID == nil {
		return ""
	}
	return *roomID
}
