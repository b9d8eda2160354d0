package tenants

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

// NewRepository builds a customer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *repository) UpdateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if err := r.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *repository) FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	var rows []models.Tenant
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListSyncedTenants(ctx context.Context) ([]models.Tenant, error) {
	var rows []models.Tenant
	err := r.db.WithContext(ctx).
		Where("eboekhouden_relatie_id IS NOT NULL").
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// SetTenantLedgerLink records (or clears) the remote relation id. A
// nil relatieID resets the tenant to unsynced.
func (r *repository) SetTenantLedgerLink(ctx context.Context, id uuid.UUID, relatieID *string) error {
	updates := map[string]any{
		"eboekhouden_relatie_id": relatieID,
		"eboekhouden_synced_at":  nil,
	}
	if relatieID != nil {
		updates["eboekhouden_synced_at"] = time.Now()
	}
	return r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) UpdateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error) {
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) FindExternalCustomerByID(ctx context.Context, id uuid.UUID) (*models.ExternalCustomer, error) {
	var customer models.ExternalCustomer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "external customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) ListExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error) {
	var rows []models.ExternalCustomer
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListSyncedExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error) {
	var rows []models.ExternalCustomer
	err := r.db.WithContext(ctx).
		Where("eboekhouden_relatie_id IS NOT NULL").
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SetExternalCustomerLedgerLink(ctx context.Context, id uuid.UUID, relatieID *string) error {
	updates := map[string]any{
		"eboekhouden_relatie_id": relatieID,
		"eboekhouden_synced_at":  nil,
	}
	if relatieID != nil {
		updates["eboekhouden_synced_at"] = time.Now()
	}
	return r.db.WithContext(ctx).
		Model(&models.ExternalCustomer{}).
		Where("id = ?", id).
		Updates(updates).Error
}
