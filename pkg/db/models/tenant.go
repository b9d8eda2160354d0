package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a leaseholder in the building.
type Tenant struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	CompanyName *string   `gorm:"column:company_name"`
	ContactName *string   `gorm:"column:contact_name"`
	Email       string    `gorm:"column:email;not null"`
	Phone       *string   `gorm:"column:phone"`
	Street      string    `gorm:"column:street"`
	PostalCode  string    `gorm:"column:postal_code"`
	City        string    `gorm:"column:city"`
	Country     string    `gorm:"column:country;default:'NL'"`
	VATNumber   *string   `gorm:"column:vat_number"`

	EBoekhoudenRelatieID *string    `gorm:"column:eboekhouden_relatie_id"`
	EBoekhoudenSyncedAt  *time.Time `gorm:"column:eboekhouden_synced_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
