package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/internal/settings"
	syncsvc "github.com/havenwerk/verhuur-backend/internal/sync"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

const monthLayout = "2006-01"

type settingsSource interface {
	Resolve(ctx context.Context) (*models.CompanySettings, error)
}

type invoiceGenerator interface {
	GenerateMonthlyLeaseInvoices(ctx context.Context, month string, cfg *models.CompanySettings) (*invoicing.RunReport, error)
	AggregateBookings(ctx context.Context, bookingType enums.BookingType, month string, cfg *models.CompanySettings) (*invoicing.RunReport, error)
}

type ledgerChecker interface {
	CheckInvoicePaymentStatuses(ctx context.Context, cfg *models.CompanySettings) (*syncsvc.PaymentReport, error)
	CheckPurchaseInvoicePaymentStatuses(ctx context.Context, cfg *models.CompanySettings) (*syncsvc.PaymentReport, error)
	VerifyInvoiceSyncStatus(ctx context.Context, cfg *models.CompanySettings) (*syncsvc.VerifyReport, error)
	VerifyRelations(ctx context.Context, cfg *models.CompanySettings) (*syncsvc.VerifyReport, error)
}

func currentMonth(now time.Time) string {
	return now.UTC().Format(monthLayout)
}

func previousMonth(now time.Time) string {
	firstOfMonth := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, -1, 0).Format(monthLayout)
}

// MonthlyLeaseInvoicingJob bills all active leases for the month the
// job runs in.
type MonthlyLeaseInvoicingJob struct {
	invoices invoiceGenerator
	settings settingsSource
	logg     *logger.Logger
	now      func() time.Time
}

// NewMonthlyLeaseInvoicingJob builds the lease billing handler.
func NewMonthlyLeaseInvoicingJob(invoices invoiceGenerator, settingsSvc settingsSource, logg *logger.Logger) (*MonthlyLeaseInvoicingJob, error) {
	if invoices == nil {
		return nil, fmt.Errorf("invoicing service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &MonthlyLeaseInvoicingJob{invoices: invoices, settings: settingsSvc, logg: logg, now: time.Now}, nil
}

func (j *MonthlyLeaseInvoicingJob) Type() enums.JobType {
	return enums.JobTypeMonthlyLeaseInvoicing
}

func (j *MonthlyLeaseInvoicingJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	month := currentMonth(j.now())
	report, err := j.invoices.GenerateMonthlyLeaseInvoices(ctx, month, cfg)
	if err != nil {
		return err
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"month":   month,
		"created": report.Created,
		"skipped": report.Skipped,
	})
	j.logg.Info(logCtx, "lease invoices generated")
	return nil
}

// BookingInvoicingJob aggregates last month's unbilled bookings of one
// type into customer invoices.
type BookingInvoicingJob struct {
	jobType     enums.JobType
	bookingType enums.BookingType
	invoices    invoiceGenerator
	settings    settingsSource
	logg        *logger.Logger
	now         func() time.Time
}

func newBookingInvoicingJob(jobType enums.JobType, bookingType enums.BookingType, invoices invoiceGenerator, settingsSvc settingsSource, logg *logger.Logger) (*BookingInvoicingJob, error) {
	if invoices == nil {
		return nil, fmt.Errorf("invoicing service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &BookingInvoicingJob{
		jobType:     jobType,
		bookingType: bookingType,
		invoices:    invoices,
		settings:    settingsSvc,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// NewMeetingRoomInvoicingJob bills last month's meeting room bookings.
func NewMeetingRoomInvoicingJob(invoices invoiceGenerator, settingsSvc settingsSource, logg *logger.Logger) (*BookingInvoicingJob, error) {
	return newBookingInvoicingJob(enums.JobTypeMeetingRoomInvoicing, enums.BookingTypeMeetingRoom, invoices, settingsSvc, logg)
}

// NewFlexDeskInvoicingJob bills last month's flex desk bookings.
func NewFlexDeskInvoicingJob(invoices invoiceGenerator, settingsSvc settingsSource, logg *logger.Logger) (*BookingInvoicingJob, error) {
	return newBookingInvoicingJob(enums.JobTypeFlexDeskInvoicing, enums.BookingTypeFlexDesk, invoices, settingsSvc, logg)
}

func (j *BookingInvoicingJob) Type() enums.JobType {
	return j.jobType
}

func (j *BookingInvoicingJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	month := previousMonth(j.now())
	report, err := j.invoices.AggregateBookings(ctx, j.bookingType, month, cfg)
	if err != nil {
		return err
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"month":   month,
		"created": report.Created,
		"merged":  report.Merged,
	})
	j.logg.Info(logCtx, "bookings aggregated")
	return nil
}

// PaymentStatusCheckJob polls the ledger for settled invoices and
// purchase invoices.
type PaymentStatusCheckJob struct {
	sync     ledgerChecker
	settings settingsSource
	logg     *logger.Logger
}

// NewPaymentStatusCheckJob builds the payment polling handler.
func NewPaymentStatusCheckJob(syncSvc ledgerChecker, settingsSvc settingsSource, logg *logger.Logger) (*PaymentStatusCheckJob, error) {
	if syncSvc == nil {
		return nil, fmt.Errorf("sync service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PaymentStatusCheckJob{sync: syncSvc, settings: settingsSvc, logg: logg}, nil
}

func (j *PaymentStatusCheckJob) Type() enums.JobType {
	return enums.JobTypePaymentStatusCheck
}

func (j *PaymentStatusCheckJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	if !settings.LedgerEnabled(cfg) {
		j.logg.Info(ctx, "ledger sync disabled; skipping payment check")
		return nil
	}

	invoiceReport, invErr := j.sync.CheckInvoicePaymentStatuses(ctx, cfg)
	purchaseReport, purErr := j.sync.CheckPurchaseInvoicePaymentStatuses(ctx, cfg)

	fields := map[string]any{}
	if invoiceReport != nil {
		fields["invoices_checked"] = invoiceReport.Checked
		fields["invoices_paid"] = invoiceReport.MarkedPaid
	}
	if purchaseReport != nil {
		fields["purchases_checked"] = purchaseReport.Checked
		fields["purchases_paid"] = purchaseReport.MarkedPaid
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "payment status check done")
	return multierr.Combine(invErr, purErr)
}

// InvoiceSyncVerificationJob re-checks synced billing documents
// against the ledger.
type InvoiceSyncVerificationJob struct {
	sync     ledgerChecker
	settings settingsSource
	logg     *logger.Logger
}

// NewInvoiceSyncVerificationJob builds the invoice verification
// handler.
func NewInvoiceSyncVerificationJob(syncSvc ledgerChecker, settingsSvc settingsSource, logg *logger.Logger) (*InvoiceSyncVerificationJob, error) {
	if syncSvc == nil {
		return nil, fmt.Errorf("sync service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &InvoiceSyncVerificationJob{sync: syncSvc, settings: settingsSvc, logg: logg}, nil
}

func (j *InvoiceSyncVerificationJob) Type() enums.JobType {
	return enums.JobTypeInvoiceSyncVerification
}

func (j *InvoiceSyncVerificationJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	if !settings.LedgerEnabled(cfg) {
		j.logg.Info(ctx, "ledger sync disabled; skipping invoice verification")
		return nil
	}
	_, err = j.sync.VerifyInvoiceSyncStatus(ctx, cfg)
	return err
}

// RelationVerificationJob re-checks synced customer relations against
// the ledger.
type RelationVerificationJob struct {
	sync     ledgerChecker
	settings settingsSource
	logg     *logger.Logger
}

// NewRelationVerificationJob builds the relation verification handler.
func NewRelationVerificationJob(syncSvc ledgerChecker, settingsSvc settingsSource, logg *logger.Logger) (*RelationVerificationJob, error) {
	if syncSvc == nil {
		return nil, fmt.Errorf("sync service required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &RelationVerificationJob{sync: syncSvc, settings: settingsSvc, logg: logg}, nil
}

func (j *RelationVerificationJob) Type() enums.JobType {
	return enums.JobTypeRelationVerification
}

func (j *RelationVerificationJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	if !settings.LedgerEnabled(cfg) {
		j.logg.Info(ctx, "ledger sync disabled; skipping relation verification")
		return nil
	}
	_, err = j.sync.VerifyRelations(ctx, cfg)
	return err
}
