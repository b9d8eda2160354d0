package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// SyncLogEntry is one append-only audit row per ledger sync attempt,
// including the raw outbound and inbound payloads for forensics.
type SyncLogEntry struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	EntityType enums.SyncEntityType `gorm:"column:entity_type;not null;index"`
	EntityID   uuid.UUID            `gorm:"column:entity_id;type:uuid;not null;index"`
	Action     enums.SyncAction     `gorm:"column:action;not null"`
	Status     enums.SyncStatus     `gorm:"column:status;not null"`

	EBoekhoudenID *string `gorm:"column:eboekhouden_id"`
	ErrorMessage  *string `gorm:"column:error_message"`

	RequestPayload  json.RawMessage `gorm:"column:request_payload;type:jsonb"`
	ResponsePayload json.RawMessage `gorm:"column:response_payload;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
