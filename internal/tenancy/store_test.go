package tenancy

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock
}

func TestGormStore_CreateRollsBackWhenClaimFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET "occupancy_status"=$1 WHERE id = $2`)).
		WithArgs("Occupied", "r1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	synchronizer := newTestSynchronizer(t, store, nil)
	_, err := synchronizer.CreateTenant(context.Background(), newTenant("t1", stringPointer("r1")))

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateCommitsInsertAndClaim(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET "occupancy_status"=$1 WHERE id = $2`)).
		WithArgs("Occupied", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	synchronizer := newTestSynchronizer(t, store, nil)
	created, err := synchronizer.CreateTenant(context.Background(), newTenant("t1", stringPointer("r1")))

	require.NoError(t, err)
	assert.Equal(t, "t1", created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteMissingTenantRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","room_id" FROM "tenants" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id"}))
	mock.ExpectRollback()

	synchronizer := newTestSynchronizer(t, store, nil)
	err := synchronizer.DeleteTenant(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ListTenantsScansJoinedRooms(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "occupation", "emergency_contact",
		"move_in_date", "room_id", "room_number", "room_type", "monthly_price",
	}).
		AddRow("t1", "Budi", "budi@example.com", "0811", "Engineer", "Siti", int64(1717200000000), "room-1", "101", "Standard", int64(1500000)).
		AddRow("t2", "Ani", "ani@example.com", "0812", "Student", "Rudi", int64(1717300000000), nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN rooms AS r ON r.id = t.room_id ORDER BY t.id ASC`)).
		WillReturnRows(rows)

	views, err := store.ListTenants(context.Background())

	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].RoomNumber)
	assert.Equal(t, "101", *views[0].RoomNumber)
	assert.Equal(t, int64(1500000), *views[0].MonthlyPrice)
	assert.Nil(t, views[1].RoomID)
	assert.Nil(t, views[1].RoomType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTx_RollbackAfterCommitIsNoop(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
	assert.ErrorIs(t, tx.Commit(), errTxFinished)
	assert.NoError(t, mock.ExpectationsWereMet())
}
