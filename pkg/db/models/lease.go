package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// Lease binds a tenant to one or more office spaces, or to a flex
// credit budget. Pricing fields are mutually exclusive per lease type:
// full/part-time leases price through LeaseSpace rows, flex leases
// through CreditsPerWeek x FlexCreditRate.
type Lease struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	LeaseType enums.LeaseType `gorm:"column:lease_type;not null"`
	StartDate time.Time       `gorm:"column:start_date;not null"`
	EndDate   *time.Time      `gorm:"column:end_date"`
	IsActive  bool            `gorm:"column:is_active;not null"`

	SecurityDeposit decimal.Decimal `gorm:"column:security_deposit;type:numeric(12,2);not null;default:0"`
	VATRate         decimal.Decimal `gorm:"column:vat_rate;type:numeric(5,2);not null;default:21"`
	VATInclusive    bool            `gorm:"column:vat_inclusive;not null;default:false"`

	CreditsPerWeek *int             `gorm:"column:credits_per_week"`
	FlexCreditRate *decimal.Decimal `gorm:"column:flex_credit_rate;type:numeric(12,2)"`

	Notes string `gorm:"column:notes"`

	Tenant *Tenant      `gorm:"foreignKey:TenantID"`
	Spaces []LeaseSpace `gorm:"foreignKey:LeaseID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LeaseSpace joins a lease to an office space with the price locked in
// at signing.
type LeaseSpace struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	LeaseID       uuid.UUID       `gorm:"column:lease_id;type:uuid;not null;index"`
	OfficeSpaceID uuid.UUID       `gorm:"column:office_space_id;type:uuid;not null"`
	PricePerSqm   decimal.Decimal `gorm:"column:price_per_sqm;type:numeric(12,2);not null"`
	MonthlyRent   decimal.Decimal `gorm:"column:monthly_rent;type:numeric(12,2);not null"`

	OfficeSpace *OfficeSpace `gorm:"foreignKey:OfficeSpaceID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// OfficeSpace is a rentable unit in the building.
type OfficeSpace struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	SpaceType enums.SpaceType `gorm:"column:space_type;not null"`
	SizeSqm   decimal.Decimal `gorm:"column:size_sqm;type:numeric(10,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
