package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// Invoice is a locally generated invoice. Lease invoices carry a
// LeaseID; booking-aggregated invoices are tied to the customer only.
type Invoice struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNumber string             `gorm:"column:invoice_number;not null;unique"`
	LeaseID       *uuid.UUID         `gorm:"column:lease_id;type:uuid;index"`
	CustomerID    uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerType  enums.CustomerType `gorm:"column:customer_type;not null"`

	InvoiceMonth string    `gorm:"column:invoice_month;not null;index"` // YYYY-MM
	InvoiceDate  time.Time `gorm:"column:invoice_date;not null"`
	DueDate      time.Time `gorm:"column:due_date;not null"`

	Status enums.InvoiceStatus `gorm:"column:status;not null;default:'draft'"`

	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	VATAmount    decimal.Decimal `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	VATRate      decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null"`
	VATInclusive bool            `gorm:"column:vat_inclusive;not null;default:false"`

	Notes string `gorm:"column:notes"`

	EBoekhoudenInvoiceID *string    `gorm:"column:eboekhouden_invoice_id"`
	SyncedAt             *time.Time `gorm:"column:synced_at"`
	PaidAt               *time.Time `gorm:"column:paid_at"`

	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// InvoiceLineItem is one billed line on an invoice. LocalCategory
// resolves the ledger account at sync time unless an explicit code is
// set on the line.
type InvoiceLineItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`

	Description string          `gorm:"column:description;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null;default:1"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	VATRate     decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null"`

	LocalCategory     string  `gorm:"column:local_category;not null"`
	LedgerAccountCode *string `gorm:"column:ledger_account_code"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
