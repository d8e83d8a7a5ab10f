package tenancy

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/kostkita/kostkita/backend/internal/rooms"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "tenancy.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&rooms.Room{}, &Tenant{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func seedRooms(t *testing.T, db *gorm.DB, roomIDs ...string) {
	t.Helper()
	for index, roomID := range roomIDs {
		room := rooms.Room{
			ID:              roomID,
			Number:          roomID,
			Type:            "Standard",
			MonthlyPrice:    1500000,
			Facilities:      "AC, Kasur, Lemari",
			OccupancyStatus: rooms.OccupancyAvailable,
			Floor:           index + 1,
		}
		if err := db.Create(&room).Error; err != nil {
			t.Fatalf("failed to seed room %s: %v", roomID, err)
		}
	}
}

func newTestSynchronizer(t *testing.T, store Store, recorder OperationRecorder) *Synchronizer {
	t.Helper()
	synchronizer, err := NewSynchronizer(SynchronizerConfig{
		Store:    store,
		Logger:   zap.NewNop(),
		Recorder: recorder,
	})
	if err != nil {
		t.Fatalf("failed to build synchronizer: %v", err)
	}
	return synchronizer
}

func roomStatus(t *testing.T, db *gorm.DB, roomID string) rooms.OccupancyStatus {
	t.Helper()
	var room rooms.Room
	if err := db.Where("id = ?", roomID).Take(&room).Error; err != nil {
		t.Fatalf("failed to load room %s: %v", roomID, err)
	}
	return room.OccupancyStatus
}

// assertOccupancyInvariant checks that a room is Occupied exactly when a tenant references it.
func assertOccupancyInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var allRooms []rooms.Room
	if err := db.Find(&allRooms).Error; err != nil {
		t.Fatalf("failed to load rooms: %v", err)
	}
	for _, room := range allRooms {
		var references int64
		if err := db.Model(&Tenant{}).Where("room_id = ?", room.ID).Count(&references).Error; err != nil {
			t.Fatalf("failed to count references: %v", err)
		}
		occupied := room.OccupancyStatus == rooms.OccupancyOccupied
		if occupied != (references > 0) {
			t.Fatalf("room %s is %s with %d referencing tenants", room.ID, room.OccupancyStatus, references)
		}
	}
}

func newTenant(tenantID string, roomID *string) Tenant {
	return Tenant{
		ID:               tenantID,
		Name:             "Budi Santoso",
		Email:            "budi@example.com",
		Phone:            "+62-811-000-111",
		Occupation:       "Engineer",
		EmergencyContact: "Siti +62-811-222-333",
		MoveInDateMillis: 1717200000000,
		RoomID:           roomID,
	}
}

func stringPointer(value string) *string {
	return &value
}

var errInjectedFailure = errors.New("injected store failure")

// faultyStore wraps a Store and fails room status writes for the configured room.
type faultyStore struct {
	Store
	failRoomID string
}

func (s faultyStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, failRoomID: s.failRoomID}, nil
}

type faultyTx struct {
	Tx
	failRoomID string
}

func (t *faultyTx) SetRoomStatus(roomID string, status rooms.OccupancyStatus) (int64, error) {
	if roomID == t.failRoomID {
		return 0, errInjectedFailure
	}
	return t.Tx.SetRoomStatus(roomID, status)
}

type recordedOperation struct {
	operation string
	outcome   string
}

type operationRecorderStub struct {
	mu      sync.Mutex
	entries []recordedOperation
}

func (r *operationRecorderStub) RecordOccupancyOperation(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedOperation{operation: operation, outcome: outcome})
}

func (r *operationRecorderStub) last() recordedOperation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return recordedOperation{}
	}
	return r.entries[len(r.entries)-1]
}
