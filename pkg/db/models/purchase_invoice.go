package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseInvoice is an incoming supplier invoice. Synced to the
// ledger as a mutation against the supplier's relation.
type PurchaseInvoice struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNumber string    `gorm:"column:invoice_number;not null"`
	SupplierName  string    `gorm:"column:supplier_name;not null"`

	SupplierRelatieID *string `gorm:"column:supplier_relatie_id"`

	InvoiceDate time.Time `gorm:"column:invoice_date;not null"`
	DueDate     time.Time `gorm:"column:due_date;not null"`

	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	VATAmount decimal.Decimal `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	VATRate   decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null"`

	Category string `gorm:"column:category;not null"`
	Notes    string `gorm:"column:notes"`

	PaidAt *time.Time `gorm:"column:paid_at"`

	EBoekhoudenMutatieID *string    `gorm:"column:eboekhouden_mutatie_id"`
	SyncedAt             *time.Time `gorm:"column:synced_at"`
	EBoekhoudenMissing   bool       `gorm:"column:eboekhouden_missing;not null;default:false"`

	LineItems []PurchaseInvoiceLineItem `gorm:"foreignKey:PurchaseInvoiceID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseInvoiceLineItem is one cost line on a purchase invoice.
type PurchaseInvoiceLineItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseInvoiceID uuid.UUID `gorm:"column:purchase_invoice_id;type:uuid;not null;index"`

	Description string          `gorm:"column:description;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	VATRate     decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null"`

	LocalCategory     string  `gorm:"column:local_category;not null"`
	LedgerAccountCode *string `gorm:"column:ledger_account_code"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
