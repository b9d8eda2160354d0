package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// verifyOutcome classifies a fetch-by-id check. Only a definitive
// remote answer that the record is gone counts as missing; transport
// failures and server errors must never strip a sync link, because a
// cleared link makes the next sync create a duplicate remote record.
type verifyOutcome int

const (
	verifyFound verifyOutcome = iota
	verifyMissing
	verifyFailed
)

func classifyVerify(res eboekhouden.Result) verifyOutcome {
	if res.Success {
		return verifyFound
	}
	if res.Status >= 400 && res.Status < 500 {
		return verifyMissing
	}
	return verifyFailed
}

func verifyLogEntry(entityType enums.SyncEntityType, entityID uuid.UUID, remoteID string, res eboekhouden.Result, note string) *models.SyncLogEntry {
	entry := logEntry(entityType, entityID, enums.SyncActionVerify, res, map[string]string{"remote_id": remoteID})
	if note != "" {
		entry.Status = enums.SyncStatusSuccess
		entry.ErrorMessage = &note
	}
	entry.EBoekhoudenID = &remoteID
	return entry
}

// VerifyInvoiceSyncStatus re-checks every synced billing document
// against the ledger. Invoices the ledger no longer knows lose their
// local sync link; credit notes and purchase invoices are flagged
// missing instead so an operator can decide.
func (s *service) VerifyInvoiceSyncStatus(ctx context.Context, cfg *models.CompanySettings) (*VerifyReport, error) {
	token, err := s.token(cfg)
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{}
	var errs error

	invoices, err := s.invoices.ListSynced(ctx)
	if err != nil {
		return nil, err
	}
	for _, invoice := range invoices {
		remoteID := *invoice.EBoekhoudenInvoiceID
		res := s.ledger.GetInvoice(ctx, token, remoteID)
		report.Checked++
		switch classifyVerify(res) {
		case verifyFound:
			continue
		case verifyMissing:
			if err := s.invoices.ClearSync(ctx, invoice.ID); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityInvoice, invoice.ID, remoteID, res, "not found in ledger, sync link cleared"))
			report.Cleared++
		case verifyFailed:
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityInvoice, invoice.ID, remoteID, res, ""))
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("verify invoice %s: %s", invoice.InvoiceNumber, res.Error))
		}
	}

	notes, err := s.purchases.ListSyncedCreditNotes(ctx)
	if err != nil {
		return report, multierr.Append(errs, err)
	}
	for _, note := range notes {
		remoteID := *note.EBoekhoudenID
		res := s.ledger.GetInvoice(ctx, token, remoteID)
		report.Checked++
		switch classifyVerify(res) {
		case verifyFound:
			continue
		case verifyMissing:
			if err := s.purchases.FlagCreditNoteMissing(ctx, note.ID, true); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityCreditNote, note.ID, remoteID, res, "not found in ledger, flagged missing"))
			report.Flagged++
		case verifyFailed:
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityCreditNote, note.ID, remoteID, res, ""))
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("verify credit note %s: %s", note.CreditNoteNumber, res.Error))
		}
	}

	purchaseInvoices, err := s.purchases.ListSyncedPurchaseInvoices(ctx)
	if err != nil {
		return report, multierr.Append(errs, err)
	}
	for _, invoice := range purchaseInvoices {
		remoteID := *invoice.EBoekhoudenMutatieID
		res := s.ledger.GetMutation(ctx, token, remoteID)
		report.Checked++
		switch classifyVerify(res) {
		case verifyFound:
			continue
		case verifyMissing:
			if err := s.purchases.FlagPurchaseInvoiceMissing(ctx, invoice.ID, true); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, remoteID, res, "not found in ledger, flagged missing"))
			report.Flagged++
		case verifyFailed:
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, remoteID, res, ""))
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("verify purchase invoice %s: %s", invoice.InvoiceNumber, res.Error))
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checked": report.Checked,
		"cleared": report.Cleared,
		"flagged": report.Flagged,
	})
	s.logg.Info(logCtx, "sync verification sweep done")
	return report, errs
}

// VerifyRelations re-checks every synced customer's relation. Links
// the ledger no longer knows are cleared so the next sync recreates
// them.
func (s *service) VerifyRelations(ctx context.Context, cfg *models.CompanySettings) (*VerifyReport, error) {
	token, err := s.token(cfg)
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{}
	var errs error

	verify := func(ref CustomerRef, name string, relatieID string) {
		res := s.ledger.GetRelation(ctx, token, relatieID)
		report.Checked++
		switch classifyVerify(res) {
		case verifyFound:
			return
		case verifyMissing:
			if err := s.setLedgerLink(ctx, nil, ref, nil); err != nil {
				errs = multierr.Append(errs, err)
				return
			}
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityRelation, ref.ID, relatieID, res, "relation not found in ledger, link cleared"))
			report.Cleared++
		case verifyFailed:
			s.appendLog(ctx, verifyLogEntry(enums.SyncEntityRelation, ref.ID, relatieID, res, ""))
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("verify relation for %s: %s", name, res.Error))
		}
	}

	tenantsList, err := s.customers.ListSyncedTenants(ctx)
	if err != nil {
		return nil, err
	}
	for _, tenant := range tenantsList {
		verify(CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, tenant.Name, *tenant.EBoekhoudenRelatieID)
	}

	externals, err := s.customers.ListSyncedExternalCustomers(ctx)
	if err != nil {
		return report, multierr.Append(errs, err)
	}
	for _, customer := range externals {
		verify(CustomerRef{Type: enums.CustomerTypeExternal, ID: customer.ID}, customer.Name, *customer.EBoekhoudenRelatieID)
	}

	return report, errs
}
