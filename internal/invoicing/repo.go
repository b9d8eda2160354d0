package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invoice repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Preload("LineItems")
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Month != nil {
		query = query.Where("invoice_month = ?", *filters.Month)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.CustomerType != nil {
		query = query.Where("customer_type = ?", *filters.CustomerType)
	}
	if filters.LeaseID != nil {
		query = query.Where("lease_id = ?", *filters.LeaseID)
	}

	var rows []models.Invoice
	err := query.Order("invoice_date DESC").Order("invoice_number DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) CountForYear(ctx context.Context, year int) (int64, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("invoice_date >= ? AND invoice_date < ?", start, end).
		Count(&count).Error
	return count, err
}

func (r *repository) ExistsForLease(ctx context.Context, leaseID uuid.UUID, month string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("lease_id = ? AND invoice_month = ?", leaseID, month).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindDraftBookingInvoice(ctx context.Context, customerID uuid.UUID, customerType enums.CustomerType, month string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("lease_id IS NULL").
		Where("customer_id = ? AND customer_type = ?", customerID, customerType).
		Where("invoice_month = ?", month).
		Where("status = ?", enums.InvoiceStatusDraft).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) AppendLineItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateTotals(ctx context.Context, invoiceID uuid.UUID, subtotal, vatAmount, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{
			"subtotal":   subtotal,
			"vat_amount": vatAmount,
			"amount":     amount,
		}).Error
}

func (r *repository) UpdateNotes(ctx context.Context, invoiceID uuid.UUID, notes string) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Update("notes", notes).Error
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.InvoiceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) MarkSynced(ctx context.Context, id uuid.UUID, remoteID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"eboekhouden_invoice_id": remoteID,
			"synced_at":              at,
		}).Error
}

func (r *repository) ClearSync(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"eboekhouden_invoice_id": nil,
			"synced_at":              nil,
		}).Error
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  enums.InvoiceStatusPaid,
			"paid_at": at,
		}).Error
}

func (r *repository) ListUnsynced(ctx context.Context) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("eboekhouden_invoice_id IS NULL").
		Order("invoice_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListSynced(ctx context.Context) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Where("eboekhouden_invoice_id IS NOT NULL").
		Order("invoice_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListSyncedUnpaid(ctx context.Context) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Where("eboekhouden_invoice_id IS NOT NULL").
		Where("paid_at IS NULL").
		Order("invoice_date ASC").
		Find(&rows).Error
	return rows, err
}
