package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a fresh uuid when the caller did not set one. IDs
// are generated client side so sqlite-backed tests behave like
// Postgres.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Tenant) BeforeCreate(*gorm.DB) error           { ensureID(&m.ID); return nil }
func (m *ExternalCustomer) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Lease) BeforeCreate(*gorm.DB) error            { ensureID(&m.ID); return nil }
func (m *LeaseSpace) BeforeCreate(*gorm.DB) error       { ensureID(&m.ID); return nil }
func (m *OfficeSpace) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *Invoice) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *InvoiceLineItem) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *CreditNote) BeforeCreate(*gorm.DB) error       { ensureID(&m.ID); return nil }
func (m *CreditNoteLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
func (m *PurchaseInvoice) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *PurchaseInvoiceLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
func (m *Booking) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *GrootboekMapping) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *ScheduledJob) BeforeCreate(*gorm.DB) error     { ensureID(&m.ID); return nil }
func (m *SyncLogEntry) BeforeCreate(*gorm.DB) error     { ensureID(&m.ID); return nil }
func (m *CompanySettings) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
