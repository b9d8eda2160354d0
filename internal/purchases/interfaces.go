package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
)

// Repository defines persistence operations for purchase invoices and
// credit notes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePurchaseInvoice(ctx context.Context, row *models.PurchaseInvoice) (*models.PurchaseInvoice, error)
	UpdatePurchaseInvoice(ctx context.Context, row *models.PurchaseInvoice) (*models.PurchaseInvoice, error)
	FindPurchaseInvoiceByID(ctx context.Context, id uuid.UUID) (*models.PurchaseInvoice, error)
	ListPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error)
	ListUnsyncedPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error)
	ListSyncedPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error)
	ListSyncedUnpaidPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error)
	MarkPurchaseInvoiceSynced(ctx context.Context, id uuid.UUID, mutatieID string, at time.Time) error
	ClearPurchaseInvoiceSync(ctx context.Context, id uuid.UUID) error
	FlagPurchaseInvoiceMissing(ctx context.Context, id uuid.UUID, missing bool) error
	MarkPurchaseInvoicePaid(ctx context.Context, id uuid.UUID, at time.Time) error
	SetSupplierRelatieID(ctx context.Context, id uuid.UUID, relatieID *string) error

	CreateCreditNote(ctx context.Context, row *models.CreditNote) (*models.CreditNote, error)
	UpdateCreditNote(ctx context.Context, row *models.CreditNote) (*models.CreditNote, error)
	FindCreditNoteByID(ctx context.Context, id uuid.UUID) (*models.CreditNote, error)
	ListCreditNotes(ctx context.Context) ([]models.CreditNote, error)
	ListSyncedCreditNotes(ctx context.Context) ([]models.CreditNote, error)
	MarkCreditNoteSynced(ctx context.Context, id uuid.UUID, remoteID string, at time.Time) error
	ClearCreditNoteSync(ctx context.Context, id uuid.UUID) error
	FlagCreditNoteMissing(ctx context.Context, id uuid.UUID, missing bool) error
}
