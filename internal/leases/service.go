package leases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// Service exposes lease and office space management.
type Service interface {
	CreateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error)
	UpdateLease(ctx context.Context, id uuid.UUID, apply func(*models.Lease)) (*models.Lease, error)
	GetLease(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	ListLeases(ctx context.Context) ([]models.Lease, error)

	CreateOfficeSpace(ctx context.Context, space *models.OfficeSpace) (*models.OfficeSpace, error)
	UpdateOfficeSpace(ctx context.Context, id uuid.UUID, apply func(*models.OfficeSpace)) (*models.OfficeSpace, error)
	GetOfficeSpace(ctx context.Context, id uuid.UUID) (*models.OfficeSpace, error)
	ListOfficeSpaces(ctx context.Context) ([]models.OfficeSpace, error)
}

type service struct {
	repo Repository
}

// NewService builds a lease service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leases repository required")
	}
	return &service{repo: repo}, nil
}

// validateLease enforces the pricing shape per lease type: flex leases
// price through credits, space-bound leases through their spaces.
func validateLease(lease *models.Lease) error {
	if lease.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease tenant required")
	}
	if !lease.LeaseType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid lease type")
	}
	if lease.StartDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease start date required")
	}
	if lease.EndDate != nil && lease.EndDate.Before(lease.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease end date before start date")
	}
	if lease.VATRate.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "vat rate cannot be negative")
	}

	if lease.LeaseType == enums.LeaseTypeFlex {
		if lease.CreditsPerWeek == nil || *lease.CreditsPerWeek <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "flex lease requires credits per week")
		}
		if lease.FlexCreditRate == nil || lease.FlexCreditRate.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "flex lease requires a credit rate")
		}
		if len(lease.Spaces) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "flex lease cannot bind office spaces")
		}
		return nil
	}

	if len(lease.Spaces) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease requires at least one office space")
	}
	for _, space := range lease.Spaces {
		if space.OfficeSpaceID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "lease space missing office space")
		}
		if space.MonthlyRent.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "monthly rent cannot be negative")
		}
	}
	return nil
}

func (s *service) CreateLease(ctx context.Context, lease *models.Lease) (*models.Lease, error) {
	if err := validateLease(lease); err != nil {
		return nil, err
	}
	return s.repo.CreateLease(ctx, lease)
}

func (s *service) UpdateLease(ctx context.Context, id uuid.UUID, apply func(*models.Lease)) (*models.Lease, error) {
	lease, err := s.repo.FindLeaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(lease)
	lease.ID = id
	if err := validateLease(lease); err != nil {
		return nil, err
	}
	return s.repo.UpdateLease(ctx, lease)
}

func (s *service) GetLease(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	return s.repo.FindLeaseByID(ctx, id)
}

func (s *service) ListLeases(ctx context.Context) ([]models.Lease, error) {
	return s.repo.ListLeases(ctx)
}

func (s *service) CreateOfficeSpace(ctx context.Context, space *models.OfficeSpace) (*models.OfficeSpace, error) {
	if space.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "office space name required")
	}
	if !space.SpaceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid space type")
	}
	if space.SizeSqm.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size cannot be negative")
	}
	return s.repo.CreateOfficeSpace(ctx, space)
}

func (s *service) UpdateOfficeSpace(ctx context.Context, id uuid.UUID, apply func(*models.OfficeSpace)) (*models.OfficeSpace, error) {
	space, err := s.repo.FindOfficeSpaceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(space)
	space.ID = id
	if space.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "office space name required")
	}
	if !space.SpaceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid space type")
	}
	return s.repo.UpdateOfficeSpace(ctx, space)
}

func (s *service) GetOfficeSpace(ctx context.Context, id uuid.UUID) (*models.OfficeSpace, error) {
	return s.repo.FindOfficeSpaceByID(ctx, id)
}

func (s *service) ListOfficeSpaces(ctx context.Context) ([]models.OfficeSpace, error) {
	return s.repo.ListOfficeSpaces(ctx)
}
