package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/kostkita/kostkita/backend/internal/database/dberr"
	"github.com/kostkita/kostkita/backend/internal/rooms"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opSynchronizerNew = "tenancy.synchronizer.new"
	opCreateTenant    = "tenancy.create_tenant"
	opUpdateTenant    = "tenancy.update_tenant"
	opDeleteTenant    = "tenancy.delete_tenant"
	opListTenants     = "tenancy.list_tenants"
	opGetTenant       = "tenancy.get_tenant"

	reasonMissingStore      = "missing_store"
	reasonInvalidTenant     = "invalid_tenant"
	reasonBeginFailed       = "begin_failed"
	reasonCommitFailed      = "commit_failed"
	reasonDuplicateID       = "duplicate_id"
	reasonTenantMissing     = "tenant_missing"
	reasonTenantLookup      = "tenant_lookup_failed"
	reasonTenantInsert      = "tenant_insert_failed"
	reasonTenantUpdate      = "tenant_update_failed"
	reasonTenantDelete      = "tenant_delete_failed"
	reasonRoomClaimFailed   = "room_claim_failed"
	reasonRoomReleaseFailed = "room_release_failed"
	reasonRoomsReconcile    = "room_reconcile_failed"
	reasonQueryFailed       = "query_failed"

	metricCreate = "create"
	metricUpdate = "update"
	metricDelete = "delete"

	// OutcomeCommitted labels operations whose transaction committed.
	OutcomeCommitted = "committed"
	// OutcomeNotFound labels operations aborted because the tenant was missing.
	OutcomeNotFound = "not_found"
	// OutcomeConflict labels operations aborted on a duplicate tenant id.
	OutcomeConflict = "conflict"
	// OutcomeRejected labels operations refused before or during the transaction due to input.
	OutcomeRejected = "rejected"
	// OutcomeFailed labels operations aborted by a store failure.
	OutcomeFailed = "failed"
)

var (
	errMissingStore = errors.New("store is required")
	noOpLogger      = zap.NewNop()
)

// OperationRecorder observes the outcome of every tenant-mutating operation.
type OperationRecorder interface {
	RecordOccupancyOperation(operation, outcome string)
}

// SynchronizerConfig describes the dependencies of the occupancy synchronizer.
type SynchronizerConfig struct {
	Store    Store
	Logger   *zap.Logger
	Recorder OperationRecorder
}

// Synchronizer performs tenant create, update and delete so that a room is Occupied exactly
// when some tenant references it. Every operation runs in one store transaction and rolls
// back entirely on any failure.
type Synchronizer struct {
	store    Store
	logger   *zap.Logger
	recorder OperationRecorder
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(cfg SynchronizerConfig) (*Synchronizer, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opSynchronizerNew, reasonMissingStore, ErrStoreFailure, errMissingStore)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Synchronizer{
		store:    cfg.Store,
		logger:   logger,
		recorder: cfg.Recorder,
	}, nil
}

// CreateTenant inserts the tenant and, when it carries a room, marks that room Occupied.
// The tenant is returned as given.
func (s *Synchronizer) CreateTenant(ctx context.Context, tenant Tenant) (Tenant, error) {
	tenant = tenant.normalized()
	fields := []zap.Field{zap.String("tenant_id", tenant.ID), zap.String("room_id", roomLabel(tenant.RoomID))}
	if err := tenant.validate(); err != nil {
		return Tenant{}, s.fail(opCreateTenant, metricCreate, reasonInvalidTenant, ErrInvalidTenant, err, fields...)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Tenant{}, s.fail(opCreateTenant, metricCreate, reasonBeginFailed, ErrStoreFailure, err, fields...)
	}
	defer s.rollback(opCreateTenant, tx, fields...)

	if err := tx.InsertTenant(tenant); err != nil {
		if dberr.IsDuplicateKey(err) {
			return Tenant{}, s.fail(opCreateTenant, metricCreate, reasonDuplicateID, ErrConflict, err, fields...)
		}
		return Tenant{}, s.fail(opCreateTenant, metricCreate, reasonTenantInsert, ErrStoreFailure, err, fields...)
	}

	if tenant.RoomID != nil {
		if err := claimRoom(tx, *tenant.RoomID); err != nil {
			return Tenant{}, s.fail(opCreateTenant, metricCreate, reasonRoomClaimFailed, classify(err), err, fields...)
		}
	}

	if err := tx.Commit(); err != nil {
		return Tenant{}, s.fail(opCreateTenant, metricCreate, reasonCommitFailed, ErrStoreFailure, err, fields...)
	}
	s.record(metricCreate, OutcomeCommitted)
	s.logger.Info("tenant created", fields...)
	return tenant, nil
}

// UpdateTenant rewrites every field of the tenant, releases the room it leaves and claims
// the room it now holds.
func (s *Synchronizer) UpdateTenant(ctx context.Context, tenantID string, tenant Tenant) (Tenant, error) {
	tenant.ID = tenantID
	tenant = tenant.normalized()
	fields := []zap.Field{zap.String("tenant_id", tenant.ID), zap.String("room_id", roomLabel(tenant.RoomID))}
	if err := tenant.validate(); err != nil {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonInvalidTenant, ErrInvalidTenant, err, fields...)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonBeginFailed, ErrStoreFailure, err, fields...)
	}
	defer s.rollback(opUpdateTenant, tx, fields...)

	priorRoomID, found, err := tx.TenantRoom(tenant.ID)
	if err != nil {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonTenantLookup, ErrStoreFailure, err, fields...)
	}
	if !found {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonTenantMissing, ErrNotFound, nil, fields...)
	}
	fields = append(fields, zap.String("prior_room_id", roomLabel(priorRoomID)))

	affected, err := tx.UpdateTenant(tenant)
	if err != nil {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonTenantUpdate, ErrStoreFailure, err, fields...)
	}
	if affected == 0 {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonTenantMissing, ErrNotFound, nil, fields...)
	}

	if err := reconcileRooms(tx, priorRoomID, tenant.RoomID); err != nil {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonRoomsReconcile, classify(err), err, fields...)
	}

	if err := tx.Commit(); err != nil {
		return Tenant{}, s.fail(opUpdateTenant, metricUpdate, reasonCommitFailed, ErrStoreFailure, err, fields...)
	}
	s.record(metricUpdate, OutcomeCommitted)
	s.logger.Info("tenant updated", fields...)
	return tenant, nil
}

// DeleteTenant removes the tenant and releases the room it held.
func (s *Synchronizer) DeleteTenant(ctx context.Context, tenantID string) error {
	fields := []zap.Field{zap.String("tenant_id", tenantID)}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return s.fail(opDeleteTenant, metricDelete, reasonBeginFailed, ErrStoreFailure, err, fields...)
	}
	defer s.rollback(opDeleteTenant, tx, fields...)

	priorRoomID, found, err := tx.TenantRoom(tenantID)
	if err != nil {
		return s.fail(opDeleteTenant, metricDelete, reasonTenantLookup, ErrStoreFailure, err, fields...)
	}
	if !found {
		return s.fail(opDeleteTenant, metricDelete, reasonTenantMissing, ErrNotFound, nil, fields...)
	}
	fields = append(fields, zap.String("prior_room_id", roomLabel(priorRoomID)))

	affected, err := tx.DeleteTenant(tenantID)
	if err != nil {
		return s.fail(opDeleteTenant, metricDelete, reasonTenantDelete, ErrStoreFailure, err, fields...)
	}
	if affected == 0 {
		return s.fail(opDeleteTenant, metricDelete, reasonTenantMissing, ErrNotFound, nil, fields...)
	}

	if priorRoomID != nil {
		if err := releaseRoom(tx, *priorRoomID); err != nil {
			return s.fail(opDeleteTenant, metricDelete, reasonRoomReleaseFailed, ErrStoreFailure, err, fields...)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail(opDeleteTenant, metricDelete, reasonCommitFailed, ErrStoreFailure, err, fields...)
	}
	s.record(metricDelete, OutcomeCommitted)
	s.logger.Info("tenant deleted", fields...)
	return nil
}

// ListTenants returns every tenant with the descriptive fields of its room.
func (s *Synchronizer) ListTenants(ctx context.Context) ([]TenantView, error) {
	views, err := s.store.ListTenants(ctx)
	if err != nil {
		s.logError(opListTenants, reasonQueryFailed, err)
		return nil, newServiceError(opListTenants, reasonQueryFailed, ErrStoreFailure, err)
	}
	return views, nil
}

// GetTenant returns one tenant with the descriptive fields of its room.
func (s *Synchronizer) GetTenant(ctx context.Context, tenantID string) (TenantView, error) {
	view, found, err := s.store.FindTenant(ctx, tenantID)
	if err != nil {
		s.logError(opGetTenant, reasonQueryFailed, err, zap.String("tenant_id", tenantID))
		return TenantView{}, newServiceError(opGetTenant, reasonQueryFailed, ErrStoreFailure, err)
	}
	if !found {
		return TenantView{}, newServiceError(opGetTenant, reasonTenantMissing, ErrNotFound, nil)
	}
	return view, nil
}

// reconcileRooms joins the release of the prior room and the claim of the new one. Both
// writes are independent; the first failure is returned once both have finished.
func reconcileRooms(tx Tx, priorRoomID, nextRoomID *string) error {
	var group errgroup.Group
	if priorRoomID != nil && !sameRoom(priorRoomID, nextRoomID) {
		released := *priorRoomID
		group.Go(func() error {
			return releaseRoom(tx, released)
		})
	}
	if nextRoomID != nil {
		claimed := *nextRoomID
		group.Go(func() error {
			return claimRoom(tx, claimed)
		})
	}
	return group.Wait()
}

func claimRoom(tx Tx, roomID string) error {
	affected, err := tx.SetRoomStatus(roomID, rooms.OccupancyOccupied)
	if err != nil {
		return fmt.Errorf("claim room %s: %w", roomID, err)
	}
	if affected == 0 {
		return fmt.Errorf("claim room %s: %w", roomID, ErrUnknownRoom)
	}
	return nil
}

// releaseRoom tolerates a room that no longer exists; there is nothing left to release.
func releaseRoom(tx Tx, roomID string) error {
	if _, err := tx.SetRoomStatus(roomID, rooms.OccupancyAvailable); err != nil {
		return fmt.Errorf("release room %s: %w", roomID, err)
	}
	return nil
}

func (s *Synchronizer) rollback(operation string, tx Tx, fields ...zap.Field) {
	if err := tx.Rollback(); err != nil {
		s.logError(operation, "rollback_failed", err, fields...)
	}
}

// fail logs the failure, records its outcome and returns the classified error.
func (s *Synchronizer) fail(operation, metric, reason string, kind, cause error, fields ...zap.Field) error {
	serviceErr := newServiceError(operation, reason, kind, cause)
	switch kind {
	case ErrNotFound:
		s.record(metric, OutcomeNotFound)
		s.loggerOrDefault().Info("tenant not found", append(fields, zap.String("operation", operation))...)
	case ErrConflict:
		s.record(metric, OutcomeConflict)
		s.loggerOrDefault().Info("tenant id conflict", append(fields, zap.String("operation", operation))...)
	case ErrInvalidTenant, ErrUnknownRoom:
		s.record(metric, OutcomeRejected)
		s.loggerOrDefault().Info("tenant rejected", append(fields, zap.String("operation", operation), zap.Error(cause))...)
	default:
		s.record(metric, OutcomeFailed)
		s.logError(operation, reason, cause, fields...)
	}
	return serviceErr
}

func (s *Synchronizer) record(operation, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordOccupancyOperation(operation, outcome)
	}
}

func (s *Synchronizer) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Synchronizer) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("tenancy synchronizer error", attrs...)
}
