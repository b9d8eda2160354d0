package tenants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
)

// Repository defines persistence operations for tenants and external
// customers. Both customer kinds share the same shape; the sync engine
// addresses them through a tagged reference.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	ListSyncedTenants(ctx context.Context) ([]models.Tenant, error)
	SetTenantLedgerLink(ctx context.Context, id uuid.UUID, relatieID *string) error

	CreateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error)
	UpdateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error)
	FindExternalCustomerByID(ctx context.Context, id uuid.UUID) (*models.ExternalCustomer, error)
	ListExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error)
	ListSyncedExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error)
	SetExternalCustomerLedgerLink(ctx context.Context, id uuid.UUID, relatieID *string) error
}
