package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/kostkita/kostkita/backend/internal/database/dberr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	queryByID     = "id = ?"
	queryByTenant = "tenant_id = ?"
	queryByRoom   = "room_id = ?"
	listOrder     = "period DESC, id ASC"
)

// ServiceConfig describes the dependencies of the payment service.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service exposes payment CRUD and filtered listings.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the payment service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("payments: database connection required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// List returns every payment, newest period first.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.find(ctx, "payments.list")
}

// ListByTenant returns the payments recorded for a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]Payment, error) {
	return s.find(ctx, "payments.list_by_tenant", queryByTenant, tenantID)
}

// ListByRoom returns the payments recorded for a room.
func (s *Service) ListByRoom(ctx context.Context, roomID string) ([]Payment, error) {
	return s.find(ctx, "payments.list_by_room", queryByRoom, roomID)
}

func (s *Service) find(ctx context.Context, operation string, conditions ...interface{}) ([]Payment, error) {
	query := s.db.WithContext(ctx).Order(listOrder)
	if len(conditions) > 0 {
		query = query.Where(conditions[0], conditions[1:]...)
	}
	payments := make([]Payment, 0)
	if err := query.Find(&payments).Error; err != nil {
		s.logger.Error("payment query failed", zap.String("operation", operation), zap.Error(err))
		return nil, err
	}
	return payments, nil
}

// Get returns a single payment.
func (s *Service) Get(ctx context.Context, paymentID string) (Payment, error) {
	var payment Payment
	err := s.db.WithContext(ctx).Where(queryByID, paymentID).Take(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Payment{}, fmt.Errorf("%w: %s", ErrNotFound, paymentID)
	}
	if err != nil {
		s.logger.Error("payment lookup failed", zap.String("payment_id", paymentID), zap.Error(err))
		return Payment{}, err
	}
	return payment, nil
}

// Create inserts a payment and echoes it back.
func (s *Service) Create(ctx context.Context, payment Payment) (Payment, error) {
	payment = payment.normalized()
	if err := payment.validate(); err != nil {
		return Payment{}, err
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		if dberr.IsDuplicateKey(err) {
			return Payment{}, fmt.Errorf("%w: %s", ErrConflict, payment.ID)
		}
		s.logger.Error("payment insert failed", zap.String("payment_id", payment.ID), zap.Error(err))
		return Payment{}, err
	}
	return payment, nil
}

// Update rewrites every field of a payment and echoes it back.
func (s *Service) Update(ctx context.Context, paymentID string, payment Payment) (Payment, error) {
	payment.ID = paymentID
	payment = payment.normalized()
	if err := payment.validate(); err != nil {
		return Payment{}, err
	}
	result := s.db.WithContext(ctx).Model(&Payment{}).Where(queryByID, payment.ID).Updates(map[string]interface{}{
		"tenant_id": payment.TenantID,
		"room_id":   payment.RoomID,
		"period":    payment.Period,
		"amount":    payment.Amount,
		"paid_at":   payment.PaidAtMillis,
		"status":    payment.Status,
		"late_fee":  payment.LateFee,
	})
	if result.Error != nil {
		s.logger.Error("payment update failed", zap.String("payment_id", payment.ID), zap.Error(result.Error))
		return Payment{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Payment{}, fmt.Errorf("%w: %s", ErrNotFound, payment.ID)
	}
	return payment, nil
}

// Delete removes a payment.
func (s *Service) Delete(ctx context.Context, paymentID string) error {
	result := s.db.WithContext(ctx).Where(queryByID, paymentID).Delete(&Payment{})
	if result.Error != nil {
		s.logger.Error("payment delete failed", zap.String("payment_id", paymentID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, paymentID)
	}
	return nil
}
