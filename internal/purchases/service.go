package purchases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// Service exposes purchase invoice and credit note management.
type Service interface {
	CreatePurchaseInvoice(ctx context.Context, row *models.PurchaseInvoice) (*models.PurchaseInvoice, error)
	GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*models.PurchaseInvoice, error)
	ListPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error)

	CreateCreditNote(ctx context.Context, row *models.CreditNote) (*models.CreditNote, error)
	GetCreditNote(ctx context.Context, id uuid.UUID) (*models.CreditNote, error)
	ListCreditNotes(ctx context.Context) ([]models.CreditNote, error)
}

type service struct {
	repo Repository
}

// NewService builds a purchases service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreatePurchaseInvoice(ctx context.Context, row *models.PurchaseInvoice) (*models.PurchaseInvoice, error) {
	if row.InvoiceNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number required")
	}
	if row.SupplierName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	if row.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if row.InvoiceDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice date required")
	}
	if row.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}
	// New rows start unsynced regardless of the input.
	row.EBoekhoudenMutatieID = nil
	row.SyncedAt = nil
	row.EBoekhoudenMissing = false
	return s.repo.CreatePurchaseInvoice(ctx, row)
}

func (s *service) GetPurchaseInvoice(ctx context.Context, id uuid.UUID) (*models.PurchaseInvoice, error) {
	return s.repo.FindPurchaseInvoiceByID(ctx, id)
}

func (s *service) ListPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error) {
	return s.repo.ListPurchaseInvoices(ctx)
}

func (s *service) CreateCreditNote(ctx context.Context, row *models.CreditNote) (*models.CreditNote, error) {
	if row.CreditNoteNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit note number required")
	}
	if row.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer required")
	}
	if !row.CustomerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer type")
	}
	if row.CreditDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit date required")
	}
	// Credit note amounts are stored positive and negated at sync time.
	if row.Amount.IsNegative() || row.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit note amounts must be stored positive")
	}
	for _, line := range row.LineItems {
		if line.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit note line amounts must be stored positive")
		}
	}
	row.EBoekhoudenID = nil
	row.SyncedAt = nil
	row.EBoekhoudenMissing = false
	return s.repo.CreateCreditNote(ctx, row)
}

func (s *service) GetCreditNote(ctx context.Context, id uuid.UUID) (*models.CreditNote, error) {
	return s.repo.FindCreditNoteByID(ctx, id)
}

func (s *service) ListCreditNotes(ctx context.Context) ([]models.CreditNote, error) {
	return s.repo.ListCreditNotes(ctx)
}
