package invoicing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/internal/bookings"
	"github.com/havenwerk/verhuur-backend/internal/vat"
	dbpkg "github.com/havenwerk/verhuur-backend/pkg/db"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

// Local line-item categories resolved to ledger accounts at sync time.
const (
	CategoryRent        = "huur"
	CategoryFlex        = "flex"
	CategoryDeposit     = "borg"
	CategoryMeetingRoom = "vergaderruimte"
	CategoryFlexDesk    = "flexdesk"
)

// flexWeeksPerMonth converts a weekly credit budget into a monthly
// amount (52 weeks / 12 months).
var flexWeeksPerMonth = decimal.RequireFromString("4.33")

// MonthLayout is the canonical invoice month format.
const MonthLayout = "2006-01"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type leaseSource interface {
	ListActiveLeasesAt(ctx context.Context, at time.Time) ([]models.Lease, error)
}

// RunReport summarizes one generation run.
type RunReport struct {
	Created int
	Merged  int
	Skipped int
}

// InvoiceCreatedEvent is emitted when a new invoice draft is stored.
type InvoiceCreatedEvent struct {
	InvoiceID     uuid.UUID          `json:"invoice_id"`
	InvoiceNumber string             `json:"invoice_number"`
	CustomerID    uuid.UUID          `json:"customer_id"`
	CustomerType  enums.CustomerType `json:"customer_type"`
	InvoiceMonth  string             `json:"invoice_month"`
	Amount        decimal.Decimal    `json:"amount"`
}

// Service generates lease invoices and aggregates bookings, and exposes
// invoice reads for the HTTP surface.
type Service interface {
	GenerateMonthlyLeaseInvoices(ctx context.Context, month string, cfg *models.CompanySettings) (*RunReport, error)
	AggregateBookings(ctx context.Context, bookingType enums.BookingType, month string, cfg *models.CompanySettings) (*RunReport, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filters ListFilters) ([]models.Invoice, error)
	MarkSent(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo     Repository
	Leases   leaseSource
	Bookings bookings.Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	leases   leaseSource
	bookings bookings.Repository
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
}

// NewService builds the invoicing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Leases == nil {
		return nil, fmt.Errorf("lease source required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking source required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		leases:   params.Leases,
		bookings: params.Bookings,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

func parseMonth(month string) (time.Time, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invoice month %q", month))
	}
	return start, nil
}

// GenerateMonthlyLeaseInvoices creates one invoice per active lease for
// the given month. Leases already invoiced for the month are skipped;
// the unique index on (lease_id, invoice_month) closes the race between
// concurrent runs.
func (s *service) GenerateMonthlyLeaseInvoices(ctx context.Context, month string, cfg *models.CompanySettings) (*RunReport, error) {
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "company settings not configured")
	}
	monthStart, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	leases, err := s.leases.ListActiveLeasesAt(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	report := &RunReport{}
	var runErr error
	for i := range leases {
		lease := &leases[i]
		logCtx := s.logg.WithEntity(ctx, "lease", lease.ID.String())

		exists, err := s.repo.ExistsForLease(ctx, lease.ID, month)
		if err != nil {
			runErr = multierr.Append(runErr, fmt.Errorf("lease %s: %w", lease.ID, err))
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		invoice, err := s.buildLeaseInvoice(ctx, lease, month, monthStart, cfg)
		if err != nil {
			runErr = multierr.Append(runErr, fmt.Errorf("lease %s: %w", lease.ID, err))
			continue
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.Create(ctx, invoice); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInvoiceCreated,
				AggregateType: enums.AggregateInvoice,
				AggregateID:   invoice.ID,
				Data: InvoiceCreatedEvent{
					InvoiceID:     invoice.ID,
					InvoiceNumber: invoice.InvoiceNumber,
					CustomerID:    invoice.CustomerID,
					CustomerType:  invoice.CustomerType,
					InvoiceMonth:  invoice.InvoiceMonth,
					Amount:        invoice.Amount,
				},
			})
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_invoices_lease_month") {
				report.Skipped++
				continue
			}
			runErr = multierr.Append(runErr, fmt.Errorf("lease %s: %w", lease.ID, err))
			continue
		}

		report.Created++
		s.logg.Info(s.logg.WithField(logCtx, "invoice_number", invoice.InvoiceNumber), "lease invoice created")
	}
	return report, runErr
}

// spaceLineLabel derives the rent line label from the space type:
// bedrijfsruimte units bill as "Hal <n>", kantoorruimte as
// "Kantoor <n>", opslagruimte as "Opslag <n>". The unit number is the
// trailing numeric token of the space name; names without one keep
// their full name behind the prefix.
func spaceLineLabel(space *models.OfficeSpace) string {
	var prefix string
	switch space.SpaceType {
	case enums.SpaceTypeBedrijfsruimte:
		prefix = "Hal"
	case enums.SpaceTypeKantoor:
		prefix = "Kantoor"
	case enums.SpaceTypeOpslag:
		prefix = "Opslag"
	default:
		return space.Name
	}
	fields := strings.Fields(space.Name)
	if len(fields) > 0 && strings.EqualFold(fields[0], prefix) {
		return space.Name
	}
	if len(fields) > 0 {
		if _, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			return prefix + " " + fields[len(fields)-1]
		}
	}
	return prefix + " " + space.Name
}

// buildLeaseInvoice assembles the invoice rows for one lease.
func (s *service) buildLeaseInvoice(ctx context.Context, lease *models.Lease, month string, monthStart time.Time, cfg *models.CompanySettings) (*models.Invoice, error) {
	invoiceID := uuid.New()
	monthLabel := monthStart.Format("January 2006")

	var items []models.InvoiceLineItem
	var parts []vat.Breakdown

	if lease.LeaseType == enums.LeaseTypeFlex {
		if lease.CreditsPerWeek == nil || lease.FlexCreditRate == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "flex lease missing credit configuration")
		}
		amount := decimal.NewFromInt(int64(*lease.CreditsPerWeek)).
			Mul(*lease.FlexCreditRate).
			Mul(flexWeeksPerMonth).
			Round(2)
		breakdown := vat.Compute(amount, lease.VATRate, lease.VATInclusive)
		parts = append(parts, breakdown)
		items = append(items, models.InvoiceLineItem{
			ID:            uuid.New(),
			InvoiceID:     invoiceID,
			Description:   fmt.Sprintf("Flexplekken %s (%d credits p/w)", monthLabel, *lease.CreditsPerWeek),
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     amount,
			Amount:        amount,
			VATRate:       lease.VATRate,
			LocalCategory: CategoryFlex,
		})
	} else {
		if len(lease.Spaces) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease has no office spaces")
		}
		for _, space := range lease.Spaces {
			name := "ruimte"
			if space.OfficeSpace != nil {
				name = spaceLineLabel(space.OfficeSpace)
			}
			amount := space.MonthlyRent.Round(2)
			breakdown := vat.Compute(amount, lease.VATRate, lease.VATInclusive)
			parts = append(parts, breakdown)
			items = append(items, models.InvoiceLineItem{
				ID:            uuid.New(),
				InvoiceID:     invoiceID,
				Description:   fmt.Sprintf("Huur %s %s", name, monthLabel),
				Quantity:      decimal.NewFromInt(1),
				UnitPrice:     amount,
				Amount:        amount,
				VATRate:       lease.VATRate,
				LocalCategory: CategoryRent,
			})
		}
	}

	// The deposit joins the taxable base and splits with the lease's
	// own rate and inclusive flag, same as the rent lines.
	if lease.SecurityDeposit.IsPositive() {
		deposit := lease.SecurityDeposit.Round(2)
		parts = append(parts, vat.Compute(deposit, lease.VATRate, lease.VATInclusive))
		items = append(items, models.InvoiceLineItem{
			ID:            uuid.New(),
			InvoiceID:     invoiceID,
			Description:   "Borg",
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     deposit,
			Amount:        deposit,
			VATRate:       lease.VATRate,
			LocalCategory: CategoryDeposit,
		})
	}

	totals := vat.Sum(parts...)
	number, err := s.nextInvoiceNumber(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	return &models.Invoice{
		ID:            invoiceID,
		InvoiceNumber: number,
		LeaseID:       &lease.ID,
		CustomerID:    lease.TenantID,
		CustomerType:  enums.CustomerTypeTenant,
		InvoiceMonth:  month,
		InvoiceDate:   monthStart,
		DueDate:       monthStart.AddDate(0, 0, cfg.InvoiceDueDays),
		Status:        enums.InvoiceStatusDraft,
		Subtotal:      totals.Subtotal,
		VATAmount:     totals.VAT,
		Amount:        totals.Total,
		VATRate:       lease.VATRate,
		VATInclusive:  lease.VATInclusive,
		LineItems:     items,
	}, nil
}

// AggregateBookings folds the month's unbilled bookings into one draft
// invoice per customer. An existing draft for (customer, month) gains
// the new lines; bookings are stamped with the invoice id in the same
// transaction so they are never picked up twice.
func (s *service) AggregateBookings(ctx context.Context, bookingType enums.BookingType, month string, cfg *models.CompanySettings) (*RunReport, error) {
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "company settings not configured")
	}
	if !bookingType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid booking type")
	}
	monthStart, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	rows, err := s.bookings.FindUnbilled(ctx, bookingType, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &RunReport{}, nil
	}

	type customerKey struct {
		ID   uuid.UUID
		Type enums.CustomerType
	}
	groups := make(map[customerKey][]models.Booking)
	var order []customerKey
	for _, booking := range rows {
		key := customerKey{ID: booking.CustomerID, Type: booking.CustomerType}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], booking)
	}

	category := CategoryMeetingRoom
	if bookingType == enums.BookingTypeFlexDesk {
		category = CategoryFlexDesk
	}

	report := &RunReport{}
	var runErr error
	for _, key := range order {
		batch := groups[key]
		err := s.aggregateCustomerBookings(ctx, key.ID, key.Type, batch, category, month, monthStart, cfg, report)
		if err != nil {
			runErr = multierr.Append(runErr, fmt.Errorf("customer %s: %w", key.ID, err))
		}
	}
	return report, runErr
}

func (s *service) aggregateCustomerBookings(
	ctx context.Context,
	customerID uuid.UUID,
	customerType enums.CustomerType,
	batch []models.Booking,
	category, month string,
	monthStart time.Time,
	cfg *models.CompanySettings,
	report *RunReport,
) error {
	items := make([]models.InvoiceLineItem, 0, len(batch))
	bookingIDs := make([]uuid.UUID, 0, len(batch))
	var parts []vat.Breakdown
	for _, booking := range batch {
		amount := booking.Amount.Round(2)
		parts = append(parts, vat.Compute(amount, cfg.DefaultVATRate, cfg.DefaultVATInclusive))
		description := booking.Description
		if description == "" {
			description = fmt.Sprintf("%s %s", booking.BookingType, booking.BookingDate.Format("02-01-2006"))
		}
		items = append(items, models.InvoiceLineItem{
			ID:            uuid.New(),
			Description:   description,
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     amount,
			Amount:        amount,
			VATRate:       cfg.DefaultVATRate,
			LocalCategory: category,
		})
		bookingIDs = append(bookingIDs, booking.ID)
	}
	added := vat.Sum(parts...)
	batchNote := fmt.Sprintf("%d %s boekingen %s", len(batch), category, monthStart.Format("January 2006"))

	existing, err := s.repo.FindDraftBookingInvoice(ctx, customerID, customerType, month)
	if err != nil {
		return err
	}

	if existing != nil {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.AppendLineItems(ctx, existing.ID, items); err != nil {
				return err
			}
			merged := vat.Sum(vat.Breakdown{
				Subtotal: existing.Subtotal,
				VAT:      existing.VATAmount,
				Total:    existing.Amount,
			}, added)
			if err := repo.UpdateTotals(ctx, existing.ID, merged.Subtotal, merged.VAT, merged.Total); err != nil {
				return err
			}
			notes := batchNote
			if existing.Notes != "" {
				notes = existing.Notes + "\n" + batchNote
			}
			if err := repo.UpdateNotes(ctx, existing.ID, notes); err != nil {
				return err
			}
			if err := s.bookings.WithTx(tx).StampInvoice(ctx, bookingIDs, existing.ID); err != nil {
				return err
			}
			report.Merged++
			return nil
		})
	}

	number, err := s.nextInvoiceNumber(ctx, monthStart)
	if err != nil {
		return err
	}
	invoice := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		CustomerID:    customerID,
		CustomerType:  customerType,
		InvoiceMonth:  month,
		InvoiceDate:   monthStart.AddDate(0, 1, 0),
		DueDate:       monthStart.AddDate(0, 1, cfg.InvoiceDueDays),
		Status:        enums.InvoiceStatusDraft,
		Subtotal:      added.Subtotal,
		VATAmount:     added.VAT,
		Amount:        added.Total,
		VATRate:       cfg.DefaultVATRate,
		VATInclusive:  cfg.DefaultVATInclusive,
		Notes:         batchNote,
		LineItems:     items,
	}
	for i := range invoice.LineItems {
		invoice.LineItems[i].InvoiceID = invoice.ID
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, invoice); err != nil {
			return err
		}
		if err := s.bookings.WithTx(tx).StampInvoice(ctx, bookingIDs, invoice.ID); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceCreated,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Data: InvoiceCreatedEvent{
				InvoiceID:     invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				CustomerID:    invoice.CustomerID,
				CustomerType:  invoice.CustomerType,
				InvoiceMonth:  invoice.InvoiceMonth,
				Amount:        invoice.Amount,
			},
		}); err != nil {
			return err
		}
		report.Created++
		return nil
	})
}

// nextInvoiceNumber issues F<year>-<seq>. The unique constraint on
// invoice_number backstops concurrent runs.
func (s *service) nextInvoiceNumber(ctx context.Context, invoiceDate time.Time) (string, error) {
	count, err := s.repo.CountForYear(ctx, invoiceDate.Year())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("F%d-%04d", invoiceDate.Year(), count+1), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Invoice, error) {
	return s.repo.List(ctx, filters)
}

// MarkSent moves a draft to sent. Paid invoices are immutable.
func (s *service) MarkSent(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enums.InvoiceStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already paid")
	}
	if err := s.repo.SetStatus(ctx, id, enums.InvoiceStatusSent); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
