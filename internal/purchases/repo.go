package purchases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePurchaseInvoice(ctx context.Context, row *models.PurchaseInvoice) (*models.PurchaseInvoice, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) UpdatePurchaseInvoice(ctx context.Context, row *models.PurchaseInvoice) (*models.PurchaseInvoice, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) FindPurchaseInvoiceByID(ctx context.Context, id uuid.UUID) (*models.PurchaseInvoice, error) {
	var row models.PurchaseInvoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase invoice not found")
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error) {
	var rows []models.PurchaseInvoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Order("invoice_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListUnsyncedPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error) {
	var rows []models.PurchaseInvoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("eboekhouden_mutatie_id IS NULL").
		Order("invoice_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListSyncedPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error) {
	var rows []models.PurchaseInvoice
	err := r.db.WithContext(ctx).
		Where("eboekhouden_mutatie_id IS NOT NULL").
		Order("invoice_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListSyncedUnpaidPurchaseInvoices(ctx context.Context) ([]models.PurchaseInvoice, error) {
	var rows []models.PurchaseInvoice
	err := r.db.WithContext(ctx).
		Where("eboekhouden_mutatie_id IS NOT NULL").
		Where("paid_at IS NULL").
		Order("invoice_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkPurchaseInvoiceSynced(ctx context.Context, id uuid.UUID, mutatieID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseInvoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"eboekhouden_mutatie_id": mutatieID,
			"synced_at":              at,
			"eboekhouden_missing":    false,
		}).Error
}

func (r *repository) ClearPurchaseInvoiceSync(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseInvoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"eboekhouden_mutatie_id": nil,
			"synced_at":              nil,
			"eboekhouden_missing":    false,
		}).Error
}

func (r *repository) FlagPurchaseInvoiceMissing(ctx context.Context, id uuid.UUID, missing bool) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseInvoice{}).
		Where("id = ?", id).
		Update("eboekhouden_missing", missing).Error
}

func (r *repository) MarkPurchaseInvoicePaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseInvoice{}).
		Where("id = ?", id).
		Update("paid_at", at).Error
}

func (r *repository) SetSupplierRelatieID(ctx context.Context, id uuid.UUID, relatieID *string) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseInvoice{}).
		Where("id = ?", id).
		Update("supplier_relatie_id", relatieID).Error
}

func (r *repository) CreateCreditNote(ctx context.Context, row *models.CreditNote) (*models.CreditNote, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) UpdateCreditNote(ctx context.Context, row *models.CreditNote) (*models.CreditNote, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) FindCreditNoteByID(ctx context.Context, id uuid.UUID) (*models.CreditNote, error) {
	var row models.CreditNote
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "credit note not found")
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListCreditNotes(ctx context.Context) ([]models.CreditNote, error) {
	var rows []models.CreditNote
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Order("credit_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListSyncedCreditNotes(ctx context.Context) ([]models.CreditNote, error) {
	var rows []models.CreditNote
	err := r.db.WithContext(ctx).
		Where("eboekhouden_id IS NOT NULL").
		Order("credit_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkCreditNoteSynced(ctx context.Context, id uuid.UUID, remoteID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditNote{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"eboekhouden_id":      remoteID,
			"synced_at":           at,
			"eboekhouden_missing": false,
		}).Error
}

func (r *repository) ClearCreditNoteSync(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditNote{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"eboekhouden_id":      nil,
			"synced_at":           nil,
			"eboekhouden_missing": false,
		}).Error
}

func (r *repository) FlagCreditNoteMissing(ctx context.Context, id uuid.UUID, missing bool) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditNote{}).
		Where("id = ?", id).
		Update("eboekhouden_missing", missing).Error
}
