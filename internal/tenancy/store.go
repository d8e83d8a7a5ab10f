package tenancy

import (
	"context"
	"errors"
	"sync"

	"github.com/kostkita/kostkita/backend/internal/rooms"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	queryByID       = "id = ?"
	tenantViewTable = "tenants AS t"
	tenantViewJoin  = "LEFT JOIN rooms AS r ON r.id = t.room_id"
	tenantViewOrder = "t.id ASC"
)

var tenantViewColumns = []string{
	"t.id", "t.name", "t.email", "t.phone", "t.occupation", "t.emergency_contact",
	"t.move_in_date", "t.room_id", "r.room_number", "r.room_type", "r.monthly_price",
}

// Store is the transactional persistence boundary used by the synchronizer.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	ListTenants(ctx context.Context) ([]TenantView, error)
	FindTenant(ctx context.Context, tenantID string) (TenantView, bool, error)
}

// Tx is a single store transaction. Writes report the number of rows affected.
// Rollback is a no-op once the transaction has finished, so it can be deferred.
type Tx interface {
	TenantRoom(tenantID string) (roomID *string, found bool, err error)
	InsertTenant(tenant Tenant) error
	UpdateTenant(tenant Tenant) (int64, error)
	DeleteTenant(tenantID string) (int64, error)
	SetRoomStatus(roomID string, status rooms.OccupancyStatus) (int64, error)
	Commit() error
	Rollback() error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by GORM.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTx{tx: tx}, nil
}

func (s *gormStore) ListTenants(ctx context.Context) ([]TenantView, error) {
	views := make([]TenantView, 0)
	err := s.db.WithContext(ctx).
		Table(tenantViewTable).
		Select(tenantViewColumns).
		Joins(tenantViewJoin).
		Order(tenantViewOrder).
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *gormStore) FindTenant(ctx context.Context, tenantID string) (TenantView, bool, error) {
	var views []TenantView
	err := s.db.WithContext(ctx).
		Table(tenantViewTable).
		Select(tenantViewColumns).
		Joins(tenantViewJoin).
		Where("t.id = ?", tenantID).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return TenantView{}, false, err
	}
	if len(views) == 0 {
		return TenantView{}, false, nil
	}
	return views[0], true, nil
}

type gormTx struct {
	tx   *gorm.DB
	mu   sync.Mutex
	done bool
}

func (t *gormTx) TenantRoom(tenantID string) (*string, bool, error) {
	var current Tenant
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "room_id").
		Where(queryByID, tenantID).
		Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return normalizeRoomID(current.RoomID), true, nil
}

func (t *gormTx) InsertTenant(tenant Tenant) error {
	return t.tx.Create(&tenant).Error
}

func (t *gormTx) UpdateTenant(tenant Tenant) (int64, error) {
	var roomID interface{}
	if tenant.RoomID != nil {
		roomID = *tenant.RoomID
	}
	result := t.tx.Model(&Tenant{}).Where(queryByID, tenant.ID).Updates(map[string]interface{}{
		"name":              tenant.Name,
		"email":             tenant.Email,
		"phone":             tenant.Phone,
		"occupation":        tenant.Occupation,
		"emergency_contact": tenant.EmergencyContact,
		"move_in_date":      tenant.MoveInDateMillis,
		"room_id":           roomID,
	})
	return result.RowsAffected, result.Error
}

func (t *gormTx) DeleteTenant(tenantID string) (int64, error) {
	result := t.tx.Where(queryByID, tenantID).Delete(&Tenant{})
	return result.RowsAffected, result.Error
}

func (t *gormTx) SetRoomStatus(roomID string, status rooms.OccupancyStatus) (int64, error) {
	result := t.tx.Model(&rooms.Room{}).Where(queryByID, roomID).Update("occupancy_status", status)
	return result.RowsAffected, result.Error
}

func (t *gormTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return errTxFinished
	}
	t.done = true
	return t.tx.Commit().Error
}

func (t *gormTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback().Error
}

var errTxFinished = errors.New("tenancy: transaction already finished")
