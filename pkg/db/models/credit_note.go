package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// CreditNote reverses (part of) a previously billed amount. Synced to
// the ledger as an invoice with negated line amounts.
type CreditNote struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CreditNoteNumber string             `gorm:"column:credit_note_number;not null;unique"`
	CustomerID       uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerType     enums.CustomerType `gorm:"column:customer_type;not null"`

	CreditDate time.Time `gorm:"column:credit_date;not null"`

	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	VATAmount decimal.Decimal `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	VATRate   decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null"`

	Notes string `gorm:"column:notes"`

	EBoekhoudenID      *string    `gorm:"column:eboekhouden_id"`
	SyncedAt           *time.Time `gorm:"column:synced_at"`
	EBoekhoudenMissing bool       `gorm:"column:eboekhouden_missing;not null;default:false"`

	LineItems []CreditNoteLineItem `gorm:"foreignKey:CreditNoteID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CreditNoteLineItem is one reversed line on a credit note. Amounts are
// stored positive and negated at sync time.
type CreditNoteLineItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CreditNoteID uuid.UUID `gorm:"column:credit_note_id;type:uuid;not null;index"`

	Description string          `gorm:"column:description;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null;default:1"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	VATRate     decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null"`

	LocalCategory     string  `gorm:"column:local_category;not null"`
	LedgerAccountCode *string `gorm:"column:ledger_account_code"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
