package models

import (
	"time"

	"github.com/google/uuid"
)

// Reserved mapping keys used as fallbacks during ledger account
// resolution.
const (
	GrootboekKeyDefault       = "default"
	GrootboekKeyInkoopDefault = "inkoop_default"
	GrootboekInkoopPrefix     = "inkoop_"
)

// GrootboekMapping maps a local line-item category onto a ledger
// account code in the external accounting system.
type GrootboekMapping struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	LocalCategory string    `gorm:"column:local_category;not null;unique"`
	Code          string    `gorm:"column:code;not null"`
	Description   string    `gorm:"column:description"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
