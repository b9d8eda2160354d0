package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenwerk/verhuur-backend/api/controllers"
	"github.com/havenwerk/verhuur-backend/api/middleware"
	"github.com/havenwerk/verhuur-backend/internal/bookings"
	"github.com/havenwerk/verhuur-backend/internal/cron"
	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/internal/leases"
	"github.com/havenwerk/verhuur-backend/internal/purchases"
	"github.com/havenwerk/verhuur-backend/internal/settings"
	syncsvc "github.com/havenwerk/verhuur-backend/internal/sync"
	"github.com/havenwerk/verhuur-backend/internal/tenants"
	"github.com/havenwerk/verhuur-backend/pkg/config"
	"github.com/havenwerk/verhuur-backend/pkg/db"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Tenants   tenants.Service
	Leases    leases.Service
	Bookings  bookings.Service
	Invoicing invoicing.Service
	Purchases purchases.Service
	Settings  settings.Service
	Sync      syncsvc.Service

	SyncLog  syncsvc.SyncLogRepository
	Mappings syncsvc.MappingRepository
	Jobs     cron.Repository
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", controllers.TenantList(svcs.Tenants, logg))
			r.Post("/", controllers.TenantCreate(svcs.Tenants, logg))
			r.Get("/{tenantId}", controllers.TenantDetail(svcs.Tenants, logg))
			r.Patch("/{tenantId}", controllers.TenantUpdate(svcs.Tenants, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ExternalCustomerList(svcs.Tenants, logg))
			r.Post("/", controllers.ExternalCustomerCreate(svcs.Tenants, logg))
			r.Get("/{customerId}", controllers.ExternalCustomerDetail(svcs.Tenants, logg))
			r.Patch("/{customerId}", controllers.ExternalCustomerUpdate(svcs.Tenants, logg))
		})

		r.Route("/leases", func(r chi.Router) {
			r.Get("/", controllers.LeaseList(svcs.Leases, logg))
			r.Post("/", controllers.LeaseCreate(svcs.Leases, logg))
			r.Get("/{leaseId}", controllers.LeaseDetail(svcs.Leases, logg))
			r.Patch("/{leaseId}", controllers.LeaseUpdate(svcs.Leases, logg))
		})

		r.Route("/spaces", func(r chi.Router) {
			r.Get("/", controllers.OfficeSpaceList(svcs.Leases, logg))
			r.Post("/", controllers.OfficeSpaceCreate(svcs.Leases, logg))
			r.Get("/{spaceId}", controllers.OfficeSpaceDetail(svcs.Leases, logg))
			r.Patch("/{spaceId}", controllers.OfficeSpaceUpdate(svcs.Leases, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.BookingList(svcs.Bookings, logg))
			r.Post("/", controllers.BookingCreate(svcs.Bookings, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(svcs.Bookings, logg))
			r.Patch("/{bookingId}", controllers.BookingUpdate(svcs.Bookings, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(svcs.Invoicing, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(svcs.Invoicing, logg))
			r.Post("/{invoiceId}/mark-sent", controllers.InvoiceMarkSent(svcs.Invoicing, logg))
			r.Post("/generate/leases", controllers.InvoiceGenerateLeases(svcs.Invoicing, svcs.Settings, logg))
			r.Post("/generate/bookings", controllers.InvoiceAggregateBookings(svcs.Invoicing, svcs.Settings, logg))
		})

		r.Route("/purchase-invoices", func(r chi.Router) {
			r.Get("/", controllers.PurchaseInvoiceList(svcs.Purchases, logg))
			r.Post("/", controllers.PurchaseInvoiceCreate(svcs.Purchases, logg))
			r.Get("/{purchaseInvoiceId}", controllers.PurchaseInvoiceDetail(svcs.Purchases, logg))
		})

		r.Route("/credit-notes", func(r chi.Router) {
			r.Get("/", controllers.CreditNoteList(svcs.Purchases, logg))
			r.Post("/", controllers.CreditNoteCreate(svcs.Purchases, logg))
			r.Get("/{creditNoteId}", controllers.CreditNoteDetail(svcs.Purchases, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsGet(svcs.Settings, logg))
			r.Patch("/", controllers.SettingsUpdate(svcs.Settings, logg))
		})

		r.Route("/mappings", func(r chi.Router) {
			r.Get("/", controllers.MappingList(svcs.Mappings, logg))
			r.Put("/", controllers.MappingUpsert(svcs.Mappings, logg))
			r.Delete("/{mappingId}", controllers.MappingDelete(svcs.Mappings, logg))
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", controllers.ScheduledJobList(svcs.Jobs, logg))
			r.Post("/{jobType}/toggle", controllers.ScheduledJobToggle(svcs.Jobs, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/relations/{customerType}/{customerId}", controllers.SyncRelation(svcs.Sync, svcs.Settings, logg))
			r.Post("/relations/{customerType}/{customerId}/resync", controllers.ResyncRelation(svcs.Sync, svcs.Settings, logg))

			r.Post("/invoices/{invoiceId}", controllers.SyncInvoice(svcs.Sync, svcs.Settings, logg))
			r.Post("/invoices/{invoiceId}/resync", controllers.ResyncInvoice(svcs.Sync, svcs.Settings, logg))

			r.Post("/credit-notes/{creditNoteId}", controllers.SyncCreditNote(svcs.Sync, svcs.Settings, logg))
			r.Post("/credit-notes/{creditNoteId}/resync", controllers.ResyncCreditNote(svcs.Sync, svcs.Settings, logg))

			r.Post("/purchase-invoices/{purchaseInvoiceId}", controllers.SyncPurchaseInvoice(svcs.Sync, svcs.Settings, logg))
			r.Post("/purchase-invoices/{purchaseInvoiceId}/resync", controllers.ResyncPurchaseInvoice(svcs.Sync, svcs.Settings, logg))

			r.Post("/verify/invoices", controllers.VerifyInvoices(svcs.Sync, svcs.Settings, logg))
			r.Post("/verify/relations", controllers.VerifyRelations(svcs.Sync, svcs.Settings, logg))
			r.Post("/payments/check", controllers.PaymentCheck(svcs.Sync, svcs.Settings, logg))

			r.Post("/test-connection", controllers.SyncTestConnection(svcs.Sync, svcs.Settings, logg))
			r.Get("/diagnose", controllers.SyncDiagnose(svcs.Sync, svcs.Settings, logg))
			r.Get("/log", controllers.SyncLogList(svcs.SyncLog, logg))
		})
	})

	return r
}
