package tenants

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// Service exposes customer management operations.
type Service interface {
	CreateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, id uuid.UUID, apply func(*models.Tenant)) (*models.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)

	CreateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error)
	UpdateExternalCustomer(ctx context.Context, id uuid.UUID, apply func(*models.ExternalCustomer)) (*models.ExternalCustomer, error)
	GetExternalCustomer(ctx context.Context, id uuid.UUID) (*models.ExternalCustomer, error)
	ListExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error)
}

type service struct {
	repo Repository
}

// NewService builds a customer service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenants repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if tenant.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant name required")
	}
	if tenant.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant email required")
	}
	return s.repo.CreateTenant(ctx, tenant)
}

// UpdateTenant loads the tenant, applies the mutation and saves it.
// Fields tracking ledger state are not editable through this path.
func (s *service) UpdateTenant(ctx context.Context, id uuid.UUID, apply func(*models.Tenant)) (*models.Tenant, error) {
	tenant, err := s.repo.FindTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}
	relatieID, syncedAt := tenant.EBoekhoudenRelatieID, tenant.EBoekhoudenSyncedAt
	apply(tenant)
	tenant.ID = id
	tenant.EBoekhoudenRelatieID = relatieID
	tenant.EBoekhoudenSyncedAt = syncedAt
	if tenant.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant name required")
	}
	if tenant.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant email required")
	}
	return s.repo.UpdateTenant(ctx, tenant)
}

func (s *service) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.repo.FindTenantByID(ctx, id)
}

func (s *service) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *service) CreateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error) {
	if customer.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	return s.repo.CreateExternalCustomer(ctx, customer)
}

func (s *service) UpdateExternalCustomer(ctx context.Context, id uuid.UUID, apply func(*models.ExternalCustomer)) (*models.ExternalCustomer, error) {
	customer, err := s.repo.FindExternalCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	relatieID, syncedAt := customer.EBoekhoudenRelatieID, customer.EBoekhoudenSyncedAt
	apply(customer)
	customer.ID = id
	customer.EBoekhoudenRelatieID = relatieID
	customer.EBoekhoudenSyncedAt = syncedAt
	if customer.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	return s.repo.UpdateExternalCustomer(ctx, customer)
}

func (s *service) GetExternalCustomer(ctx context.Context, id uuid.UUID) (*models.ExternalCustomer, error) {
	return s.repo.FindExternalCustomerByID(ctx, id)
}

func (s *service) ListExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error) {
	return s.repo.ListExternalCustomers(ctx)
}
