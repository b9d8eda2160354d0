package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// Service resolves and updates operator-wide billing configuration.
// Callers resolve a snapshot once per request or job run and pass it
// along; the snapshot is never re-read mid-run.
type Service interface {
	Resolve(ctx context.Context) (*models.CompanySettings, error)
	Update(ctx context.Context, input UpdateInput) (*models.CompanySettings, error)
}

// UpdateInput carries the mutable settings fields. Nil pointers leave
// the stored value untouched.
type UpdateInput struct {
	CompanyName          *string
	DefaultVATRate       *decimal.Decimal
	DefaultVATInclusive  *bool
	InvoiceDueDays       *int
	DefaultLedgerAccount *string
	EBoekhoudenEnabled   *bool
	EBoekhoudenAPIToken  *string
	InvoiceTemplateID    *string
	EmailTemplateID      *string
}

type service struct {
	repo Repository
}

// NewService builds a settings service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Resolve(ctx context.Context) (*models.CompanySettings, error) {
	return s.repo.FindCurrent(ctx)
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.CompanySettings, error) {
	current, err := s.repo.FindCurrent(ctx)
	if err != nil {
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeConfiguration {
			return nil, err
		}
		current = &models.CompanySettings{}
	}

	if input.CompanyName != nil {
		current.CompanyName = *input.CompanyName
	}
	if input.DefaultVATRate != nil {
		if input.DefaultVATRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "default vat rate cannot be negative")
		}
		current.DefaultVATRate = *input.DefaultVATRate
	}
	if input.DefaultVATInclusive != nil {
		current.DefaultVATInclusive = *input.DefaultVATInclusive
	}
	if input.InvoiceDueDays != nil {
		if *input.InvoiceDueDays < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice due days cannot be negative")
		}
		current.InvoiceDueDays = *input.InvoiceDueDays
	}
	if input.DefaultLedgerAccount != nil {
		current.DefaultLedgerAccount = *input.DefaultLedgerAccount
	}
	if input.EBoekhoudenEnabled != nil {
		current.EBoekhoudenEnabled = *input.EBoekhoudenEnabled
	}
	if input.EBoekhoudenAPIToken != nil {
		current.EBoekhoudenAPIToken = *input.EBoekhoudenAPIToken
	}
	if input.InvoiceTemplateID != nil {
		current.InvoiceTemplateID = input.InvoiceTemplateID
	}
	if input.EmailTemplateID != nil {
		current.EmailTemplateID = input.EmailTemplateID
	}

	if current.CompanyName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}
	if current.EBoekhoudenEnabled && current.EBoekhoudenAPIToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "eboekhouden api token required when sync is enabled")
	}

	return s.repo.Save(ctx, current)
}

// LedgerEnabled reports whether ledger sync can run with the given
// settings snapshot.
func LedgerEnabled(s *models.CompanySettings) bool {
	return s != nil && s.EBoekhoudenEnabled && s.EBoekhoudenAPIToken != ""
}
