package invoicing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/internal/bookings"
	"github.com/havenwerk/verhuur-backend/internal/leases"
	dbpkg "github.com/havenwerk/verhuur-backend/pkg/db"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

type invoicingFixture struct {
	db  *gorm.DB
	svc Service
}

func setupInvoicing(t *testing.T) *invoicingFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Tenant{},
		&models.OfficeSpace{},
		&models.Lease{},
		&models.LeaseSpace{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.Booking{},
		&models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Leases:   leases.NewRepository(conn),
		Bookings: bookings.NewRepository(conn),
		Tx:       dbpkg.FromConn(conn),
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:   logg,
	})
	require.NoError(t, err)
	return &invoicingFixture{db: conn, svc: svc}
}

func testSettings() *models.CompanySettings {
	return &models.CompanySettings{
		CompanyName:         "Havenwerk BV",
		DefaultVATRate:      decimal.NewFromInt(21),
		DefaultVATInclusive: false,
		InvoiceDueDays:      14,
	}
}

func (f *invoicingFixture) seedTenant(t *testing.T) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Huurder BV", Email: "h@b.nl"}
	require.NoError(t, f.db.Create(tenant).Error)
	return tenant
}

func (f *invoicingFixture) seedSpaceLease(t *testing.T, tenantID uuid.UUID, rent string, deposit string) *models.Lease {
	t.Helper()
	space := &models.OfficeSpace{
		ID:        uuid.New(),
		Name:      "Hal 3",
		SpaceType: enums.SpaceTypeBedrijfsruimte,
		SizeSqm:   decimal.NewFromInt(80),
	}
	require.NoError(t, f.db.Create(space).Error)

	lease := &models.Lease{
		ID:              uuid.New(),
		TenantID:        tenantID,
		LeaseType:       enums.LeaseTypeFullTime,
		StartDate:       time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
		SecurityDeposit: decimal.RequireFromString(deposit),
		VATRate:         decimal.NewFromInt(21),
		Spaces: []models.LeaseSpace{{
			ID:            uuid.New(),
			OfficeSpaceID: space.ID,
			PricePerSqm:   decimal.RequireFromString("12.50"),
			MonthlyRent:   decimal.RequireFromString(rent),
		}},
	}
	require.NoError(t, f.db.Create(lease).Error)
	return lease
}

func TestGenerateMonthlyLeaseInvoices_SpaceLease(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	tenant := f.seedTenant(t)
	lease := f.seedSpaceLease(t, tenant.ID, "1000.00", "0")

	report, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	invoices, err := f.svc.List(ctx, ListFilters{LeaseID: &lease.ID})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	invoice := invoices[0]

	assert.Equal(t, "2026-08", invoice.InvoiceMonth)
	assert.Equal(t, enums.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, tenant.ID, invoice.CustomerID)
	assert.Equal(t, enums.CustomerTypeTenant, invoice.CustomerType)
	assert.True(t, decimal.RequireFromString("1000.00").Equal(invoice.Subtotal), "subtotal %s", invoice.Subtotal)
	assert.True(t, decimal.RequireFromString("210.00").Equal(invoice.VATAmount))
	assert.True(t, decimal.RequireFromString("1210.00").Equal(invoice.Amount))
	require.Len(t, invoice.LineItems, 1)
	assert.Contains(t, invoice.LineItems[0].Description, "Hal 3")
	assert.Equal(t, CategoryRent, invoice.LineItems[0].LocalCategory)

	// Due date follows the settings snapshot.
	assert.Equal(t, invoice.InvoiceDate.AddDate(0, 0, 14), invoice.DueDate)

	// An outbox event is queued alongside the invoice.
	var events int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestGenerateMonthlyLeaseInvoices_Idempotent(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	tenant := f.seedTenant(t)
	f.seedSpaceLease(t, tenant.ID, "1000.00", "0")

	first, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)

	var count int64
	require.NoError(t, f.db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateMonthlyLeaseInvoices_FlexLease(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	tenant := f.seedTenant(t)

	credits := 2
	rate := decimal.RequireFromString("45.00")
	lease := &models.Lease{
		ID:             uuid.New(),
		TenantID:       tenant.ID,
		LeaseType:      enums.LeaseTypeFlex,
		StartDate:      time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
		VATRate:        decimal.NewFromInt(21),
		CreditsPerWeek: &credits,
		FlexCreditRate: &rate,
	}
	require.NoError(t, f.db.Create(lease).Error)

	report, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	invoices, err := f.svc.List(ctx, ListFilters{LeaseID: &lease.ID})
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	// 2 credits x 45.00 x 4.33 weeks = 389.70
	assert.True(t, decimal.RequireFromString("389.70").Equal(invoices[0].Subtotal), "subtotal %s", invoices[0].Subtotal)
	assert.True(t, decimal.RequireFromString("81.84").Equal(invoices[0].VATAmount), "vat %s", invoices[0].VATAmount)
	assert.True(t, decimal.RequireFromString("471.54").Equal(invoices[0].Amount))
}

func TestGenerateMonthlyLeaseInvoices_DepositJoinsVATBase(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	tenant := f.seedTenant(t)
	lease := f.seedSpaceLease(t, tenant.ID, "1000.00", "2000.00")

	_, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)

	invoices, err := f.svc.List(ctx, ListFilters{LeaseID: &lease.ID})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].LineItems, 2)
	// Rent 1000 and deposit 2000 both split at the lease's 21% rate.
	assert.True(t, decimal.RequireFromString("3000.00").Equal(invoices[0].Subtotal), "subtotal %s", invoices[0].Subtotal)
	assert.True(t, decimal.RequireFromString("630.00").Equal(invoices[0].VATAmount), "vat %s", invoices[0].VATAmount)
	assert.True(t, decimal.RequireFromString("3630.00").Equal(invoices[0].Amount))

	var deposit *models.InvoiceLineItem
	for i := range invoices[0].LineItems {
		if invoices[0].LineItems[i].LocalCategory == CategoryDeposit {
			deposit = &invoices[0].LineItems[i]
		}
	}
	require.NotNil(t, deposit)
	assert.Equal(t, "Borg", deposit.Description)
	assert.True(t, decimal.NewFromInt(21).Equal(deposit.VATRate))
}

func TestSpaceLineLabel(t *testing.T) {
	cases := []struct {
		name      string
		spaceType enums.SpaceType
		want      string
	}{
		{"Hal 3", enums.SpaceTypeBedrijfsruimte, "Hal 3"},
		{"Unit 7", enums.SpaceTypeBedrijfsruimte, "Hal 7"},
		{"Unit 7", enums.SpaceTypeKantoor, "Kantoor 7"},
		{"Zolder", enums.SpaceTypeOpslag, "Opslag Zolder"},
		{"Kantoor 2.1", enums.SpaceTypeKantoor, "Kantoor 2.1"},
	}
	for _, tc := range cases {
		got := spaceLineLabel(&models.OfficeSpace{Name: tc.name, SpaceType: tc.spaceType})
		assert.Equal(t, tc.want, got, "space %q (%s)", tc.name, tc.spaceType)
	}
}

func TestGenerateMonthlyLeaseInvoices_VATInclusive(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	tenant := f.seedTenant(t)
	lease := f.seedSpaceLease(t, tenant.ID, "121.00", "0")
	require.NoError(t, f.db.Model(&models.Lease{}).Where("id = ?", lease.ID).Update("vat_inclusive", true).Error)

	_, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)

	invoices, err := f.svc.List(ctx, ListFilters{LeaseID: &lease.ID})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.True(t, decimal.RequireFromString("100.00").Equal(invoices[0].Subtotal), "subtotal %s", invoices[0].Subtotal)
	assert.True(t, decimal.RequireFromString("21.00").Equal(invoices[0].VATAmount))
	assert.True(t, decimal.RequireFromString("121.00").Equal(invoices[0].Amount))
}

func (f *invoicingFixture) seedBooking(t *testing.T, customerID uuid.UUID, bookingType enums.BookingType, date time.Time, amount string) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		ID:           uuid.New(),
		BookingType:  bookingType,
		Status:       enums.BookingStatusCompleted,
		CustomerID:   customerID,
		CustomerType: enums.CustomerTypeExternal,
		BookingDate:  date,
		Description:  "Vergaderruimte ochtend",
		Amount:       decimal.RequireFromString(amount),
	}
	require.NoError(t, f.db.Create(booking).Error)
	return booking
}

func TestAggregateBookings_CreatesDraftAndStamps(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	customerID := uuid.New()
	date := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)

	first := f.seedBooking(t, customerID, enums.BookingTypeMeetingRoom, date, "75.00")
	second := f.seedBooking(t, customerID, enums.BookingTypeMeetingRoom, date.AddDate(0, 0, 5), "50.00")
	otherType := f.seedBooking(t, customerID, enums.BookingTypeFlexDesk, date, "30.00")

	report, err := f.svc.AggregateBookings(ctx, enums.BookingTypeMeetingRoom, "2026-07", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	month := "2026-07"
	invoices, err := f.svc.List(ctx, ListFilters{Month: &month})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	invoice := invoices[0]
	assert.Nil(t, invoice.LeaseID)
	require.Len(t, invoice.LineItems, 2)
	assert.True(t, decimal.RequireFromString("125.00").Equal(invoice.Subtotal))
	assert.True(t, decimal.RequireFromString("26.25").Equal(invoice.VATAmount))
	assert.True(t, decimal.RequireFromString("151.25").Equal(invoice.Amount))
	assert.Equal(t, "2 vergaderruimte boekingen July 2026", invoice.Notes)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		var b models.Booking
		require.NoError(t, f.db.First(&b, "id = ?", id).Error)
		require.NotNil(t, b.InvoiceID)
		assert.Equal(t, invoice.ID, *b.InvoiceID)
	}
	var untouched models.Booking
	require.NoError(t, f.db.First(&untouched, "id = ?", otherType.ID).Error)
	assert.Nil(t, untouched.InvoiceID)
}

func TestAggregateBookings_MergesIntoExistingDraft(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	customerID := uuid.New()
	date := time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)

	f.seedBooking(t, customerID, enums.BookingTypeMeetingRoom, date, "100.00")
	_, err := f.svc.AggregateBookings(ctx, enums.BookingTypeMeetingRoom, "2026-07", testSettings())
	require.NoError(t, err)

	// A late booking for the same month merges into the open draft.
	f.seedBooking(t, customerID, enums.BookingTypeMeetingRoom, date.AddDate(0, 0, 1), "40.00")
	report, err := f.svc.AggregateBookings(ctx, enums.BookingTypeMeetingRoom, "2026-07", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Merged)

	month := "2026-07"
	invoices, err := f.svc.List(ctx, ListFilters{Month: &month})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].LineItems, 2)
	assert.True(t, decimal.RequireFromString("140.00").Equal(invoices[0].Subtotal))
	assert.True(t, decimal.RequireFromString("29.40").Equal(invoices[0].VATAmount))
	assert.True(t, decimal.RequireFromString("169.40").Equal(invoices[0].Amount))

	// Both aggregation runs leave a note on the draft.
	assert.Equal(t, "1 vergaderruimte boekingen July 2026\n1 vergaderruimte boekingen July 2026", invoices[0].Notes)
}

func TestAggregateBookings_NothingToDo(t *testing.T) {
	f := setupInvoicing(t)
	report, err := f.svc.AggregateBookings(context.Background(), enums.BookingTypeFlexDesk, "2026-07", testSettings())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created+report.Merged+report.Skipped)
}

func TestInvoiceNumbersAreSequentialPerYear(t *testing.T) {
	f := setupInvoicing(t)
	ctx := context.Background()
	tenant := f.seedTenant(t)
	f.seedSpaceLease(t, tenant.ID, "500.00", "0")

	_, err := f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-08", testSettings())
	require.NoError(t, err)
	_, err = f.svc.GenerateMonthlyLeaseInvoices(ctx, "2026-09", testSettings())
	require.NoError(t, err)

	var rows []models.Invoice
	require.NoError(t, f.db.Order("invoice_number ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "F2026-0001", rows[0].InvoiceNumber)
	assert.Equal(t, "F2026-0002", rows[1].InvoiceNumber)
}
