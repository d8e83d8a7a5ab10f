package payments

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	maxIdentifierLength = 190
	periodLayout        = "2006-01"
)

var (
	// ErrNotFound indicates the requested payment does not exist.
	ErrNotFound = errors.New("payments: payment not found")
	// ErrConflict indicates a payment with the same id already exists.
	ErrConflict = errors.New("payments: payment already exists")
	// ErrInvalidPayment indicates the payment payload failed validation.
	ErrInvalidPayment = errors.New("payments: invalid payment")
)

// Payment records one monthly rent payment of a tenant for a room.
type Payment struct {
	ID           string `gorm:"column:id;primaryKey;size:190;not null"`
	TenantID     string `gorm:"column:tenant_id;size:190;not null;index"`
	RoomID       string `gorm:"column:room_id;size:190;not null;index"`
	Period       string `gorm:"column:period;size:7;not null"`
	Amount       int64  `gorm:"column:amount;not null"`
	PaidAtMillis int64  `gorm:"column:paid_at;not null"`
	Status       string `gorm:"column:status;size:32;not null"`
	LateFee      int64  `gorm:"column:late_fee;not null;default:0"`
}

// TableName provides the explicit table binding for GORM.
func (Payment) TableName() string {
	return "payments"
}

func (p Payment) normalized() Payment {
	p.ID = strings.TrimSpace(p.ID)
	p.TenantID = strings.TrimSpace(p.TenantID)
	p.RoomID = strings.TrimSpace(p.RoomID)
	p.Period = strings.TrimSpace(p.Period)
	p.Status = strings.TrimSpace(p.Status)
	return p
}

func (p Payment) validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPayment)
	case len(p.ID) > maxIdentifierLength:
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidPayment, maxIdentifierLength)
	case p.TenantID == "":
		return fmt.Errorf("%w: empty tenant id", ErrInvalidPayment)
	case p.RoomID == "":
		return fmt.Errorf("%w: empty room id", ErrInvalidPayment)
	case p.Status == "":
		return fmt.Errorf("%w: empty status", ErrInvalidPayment)
	case p.Amount < 0 || p.LateFee < 0:
		return fmt.Errorf("%w: negative amount", ErrInvalidPayment)
	}
	if _, err := time.Parse(periodLayout, p.Period); err != nil {
		return fmt.Errorf("%w: period must be YYYY-MM", ErrInvalidPayment)
	}
	return nil
}
