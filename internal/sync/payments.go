package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

// CheckInvoicePaymentStatuses polls the ledger for every synced unpaid
// invoice and marks the ones with a zero open amount as paid.
func (s *service) CheckInvoicePaymentStatuses(ctx context.Context, cfg *models.CompanySettings) (*PaymentReport, error) {
	token, err := s.token(cfg)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListSyncedUnpaid(ctx)
	if err != nil {
		return nil, err
	}

	report := &PaymentReport{}
	var errs error
	for _, invoice := range invoices {
		remoteID := *invoice.EBoekhoudenInvoiceID
		res := s.ledger.GetInvoice(ctx, token, remoteID)
		report.Checked++
		if !res.Success {
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("payment check for invoice %s: %s", invoice.InvoiceNumber, res.Error))
			continue
		}

		var remote eboekhouden.Invoice
		if err := eboekhouden.DecodeData(res, &remote); err != nil {
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("payment check for invoice %s: %w", invoice.InvoiceNumber, err))
			continue
		}
		if !remote.OpenAmount.IsZero() {
			continue
		}

		paidAt := time.Now()
		invoiceID := invoice.ID
		invoiceNumber := invoice.InvoiceNumber
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.invoices.WithTx(tx).MarkPaid(ctx, invoiceID, paidAt); err != nil {
				return err
			}
			entry := logEntry(enums.SyncEntityInvoice, invoiceID, enums.SyncActionPaymentCheck, res, map[string]string{"remote_id": remoteID})
			entry.EBoekhoudenID = &remoteID
			if err := s.syncLog.WithTx(tx).Append(ctx, entry); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInvoicePaid,
				AggregateType: enums.AggregateInvoice,
				AggregateID:   invoiceID,
				Data: InvoicePaidEvent{
					InvoiceID:     invoiceID,
					InvoiceNumber: invoiceNumber,
					PaidAt:        paidAt,
				},
			})
		})
		if err != nil {
			report.Errors++
			errs = multierr.Append(errs, err)
			continue
		}
		report.MarkedPaid++
		logCtx := s.logg.WithEntity(ctx, "invoice", invoiceID.String())
		s.logg.Info(logCtx, "invoice marked paid from ledger")
	}

	return report, errs
}

// CheckPurchaseInvoicePaymentStatuses polls the ledger mutation for
// every synced unpaid purchase invoice.
func (s *service) CheckPurchaseInvoicePaymentStatuses(ctx context.Context, cfg *models.CompanySettings) (*PaymentReport, error) {
	token, err := s.token(cfg)
	if err != nil {
		return nil, err
	}
	invoices, err := s.purchases.ListSyncedUnpaidPurchaseInvoices(ctx)
	if err != nil {
		return nil, err
	}

	report := &PaymentReport{}
	var errs error
	for _, invoice := range invoices {
		remoteID := *invoice.EBoekhoudenMutatieID
		res := s.ledger.GetMutation(ctx, token, remoteID)
		report.Checked++
		if !res.Success {
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("payment check for purchase invoice %s: %s", invoice.InvoiceNumber, res.Error))
			continue
		}

		var remote eboekhouden.Mutation
		if err := eboekhouden.DecodeData(res, &remote); err != nil {
			report.Errors++
			errs = multierr.Append(errs, fmt.Errorf("payment check for purchase invoice %s: %w", invoice.InvoiceNumber, err))
			continue
		}
		if !remote.OpenAmount.IsZero() {
			continue
		}

		if err := s.purchases.MarkPurchaseInvoicePaid(ctx, invoice.ID, time.Now()); err != nil {
			report.Errors++
			errs = multierr.Append(errs, err)
			continue
		}
		entry := logEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, enums.SyncActionPaymentCheck, res, map[string]string{"remote_id": remoteID})
		entry.EBoekhoudenID = &remoteID
		s.appendLog(ctx, entry)
		report.MarkedPaid++
	}

	return report, errs
}
