package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanySettings holds operator-wide billing configuration. The most
// recently updated row wins; callers resolve it once per job run or
// request and pass it along explicitly.
type CompanySettings struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CompanyName string    `gorm:"column:company_name;not null"`

	DefaultVATRate      decimal.Decimal `gorm:"column:default_vat_rate;type:numeric(5,2);not null;default:21"`
	DefaultVATInclusive bool            `gorm:"column:default_vat_inclusive;not null;default:false"`
	InvoiceDueDays      int             `gorm:"column:invoice_due_days;not null;default:14"`

	DefaultLedgerAccount string `gorm:"column:default_ledger_account"`

	EBoekhoudenEnabled  bool    `gorm:"column:eboekhouden_enabled;not null;default:false"`
	EBoekhoudenAPIToken string  `gorm:"column:eboekhouden_api_token"`
	InvoiceTemplateID   *string `gorm:"column:invoice_template_id"`
	EmailTemplateID     *string `gorm:"column:email_template_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
