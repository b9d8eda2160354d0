package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// resolveLedgerAccount picks the ledger account code for a sales line:
// explicit line override, then the category mapping, then the
// company-wide default. A missing default is a configuration error and
// aborts before any remote call.
func (s *service) resolveLedgerAccount(ctx context.Context, override *string, category string, cfg *models.CompanySettings) (string, error) {
	if override != nil && *override != "" {
		return *override, nil
	}
	if category != "" {
		mapping, err := s.mappings.FindByCategory(ctx, category)
		if err != nil {
			return "", err
		}
		if mapping != nil {
			return mapping.Code, nil
		}
	}
	if cfg.DefaultLedgerAccount != "" {
		return cfg.DefaultLedgerAccount, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeConfiguration, "no default ledger account configured")
}

// resolvePurchaseAccount resolves cost lines: inkoop_<category>, then
// the inkoop_default mapping, then the plain default chain.
func (s *service) resolvePurchaseAccount(ctx context.Context, override *string, category string, cfg *models.CompanySettings) (string, error) {
	if override != nil && *override != "" {
		return *override, nil
	}
	if category != "" {
		key := category
		if !strings.HasPrefix(key, models.GrootboekInkoopPrefix) {
			key = models.GrootboekInkoopPrefix + key
		}
		mapping, err := s.mappings.FindByCategory(ctx, key)
		if err != nil {
			return "", err
		}
		if mapping != nil {
			return mapping.Code, nil
		}
	}
	fallback, err := s.mappings.FindByCategory(ctx, models.GrootboekKeyInkoopDefault)
	if err != nil {
		return "", err
	}
	if fallback != nil {
		return fallback.Code, nil
	}
	return s.resolveLedgerAccount(ctx, nil, models.GrootboekKeyDefault, cfg)
}

// vatCode maps a VAT percentage onto the ledger's sales VAT codes.
func vatCode(rate decimal.Decimal) string {
	switch {
	case rate.Equal(decimal.NewFromInt(21)):
		return "HOOG_VERK_21"
	case rate.Equal(decimal.NewFromInt(9)):
		return "LAAG_VERK_9"
	case rate.IsZero():
		return "GEEN"
	default:
		return fmt.Sprintf("AFW_%s", rate.StringFixed(0))
	}
}

// purchaseVATCode maps a VAT percentage onto purchase VAT codes.
func purchaseVATCode(rate decimal.Decimal) string {
	switch {
	case rate.Equal(decimal.NewFromInt(21)):
		return "HOOG_INK_21"
	case rate.Equal(decimal.NewFromInt(9)):
		return "LAAG_INK_9"
	case rate.IsZero():
		return "GEEN"
	default:
		return fmt.Sprintf("AFW_%s", rate.StringFixed(0))
	}
}
