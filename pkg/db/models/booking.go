package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// Booking is a single meeting-room or flex-desk usage entry. Once
// aggregated onto an invoice its InvoiceID is set and it is never
// reconsidered by the aggregation jobs.
type Booking struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BookingType  enums.BookingType   `gorm:"column:booking_type;not null;index"`
	Status       enums.BookingStatus `gorm:"column:status;not null;default:'pending'"`
	CustomerID   uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerType enums.CustomerType  `gorm:"column:customer_type;not null"`

	BookingDate time.Time       `gorm:"column:booking_date;not null;index"`
	Description string          `gorm:"column:description"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`

	InvoiceID *uuid.UUID `gorm:"column:invoice_id;type:uuid;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
