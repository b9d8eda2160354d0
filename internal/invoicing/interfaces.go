package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// Repository defines persistence operations for invoices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filters ListFilters) ([]models.Invoice, error)
	CountForYear(ctx context.Context, year int) (int64, error)

	// ExistsForLease reports whether a lease invoice already exists for
	// the given month.
	ExistsForLease(ctx context.Context, leaseID uuid.UUID, month string) (bool, error)

	// FindDraftBookingInvoice returns the open booking-aggregation draft
	// for a customer and month, if any.
	FindDraftBookingInvoice(ctx context.Context, customerID uuid.UUID, customerType enums.CustomerType, month string) (*models.Invoice, error)
	AppendLineItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceLineItem) error
	UpdateTotals(ctx context.Context, invoiceID uuid.UUID, subtotal, vatAmount, amount decimal.Decimal) error
	UpdateNotes(ctx context.Context, invoiceID uuid.UUID, notes string) error

	SetStatus(ctx context.Context, id uuid.UUID, status enums.InvoiceStatus) error
	MarkSynced(ctx context.Context, id uuid.UUID, remoteID string, at time.Time) error
	ClearSync(ctx context.Context, id uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListUnsynced returns invoices that have never reached the ledger.
	ListUnsynced(ctx context.Context) ([]models.Invoice, error)
	// ListSynced returns invoices with a remote ledger id.
	ListSynced(ctx context.Context) ([]models.Invoice, error)
	// ListSyncedUnpaid returns synced invoices not yet marked paid.
	ListSyncedUnpaid(ctx context.Context) ([]models.Invoice, error)
}

// ListFilters narrows an invoice listing.
type ListFilters struct {
	Status       *enums.InvoiceStatus
	Month        *string
	CustomerID   *uuid.UUID
	CustomerType *enums.CustomerType
	LeaseID      *uuid.UUID
}
