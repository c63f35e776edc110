package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bloodbank-backend/api/controllers"
	"github.com/angelmondragon/bloodbank-backend/api/middleware"
	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/internal/dashboard"
	"github.com/angelmondragon/bloodbank-backend/internal/donations"
	"github.com/angelmondragon/bloodbank-backend/internal/donors"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/internal/notifications"
	"github.com/angelmondragon/bloodbank-backend/internal/recipients"
	"github.com/angelmondragon/bloodbank-backend/internal/requests"
	"github.com/angelmondragon/bloodbank-backend/pkg/config"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/bloodbank-backend/pkg/redis"
)

// Services groups the domain services mounted by the router. Nil entries
// answer with a 500 instead of panicking.
type Services struct {
	Inventory     inventory.Service
	Donors        donors.Service
	Donations     donations.Service
	Recipients    recipients.Service
	Requests      requests.Service
	Dashboard     dashboard.Service
	Notifications notifications.Service
	Audit         audit.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	deps map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	metricsHandler http.Handler,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	adminOnly := middleware.RequireRole(enums.AppRoleAdmin, logg)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		if idempotencyStore != nil {
			r.Use(middleware.Idempotency(idempotencyStore, logg))
		}
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/stock", func(r chi.Router) {
			r.Get("/", controllers.StockBalances(svc.Inventory, logg))
			r.Get("/summary", controllers.StockSummary(svc.Inventory, logg))
			r.Get("/low", controllers.StockLow(svc.Inventory, logg))
			r.Get("/events", controllers.StockEvents(svc.Inventory, logg))
			r.With(adminOnly).Post("/adjustments", controllers.StockAdjust(svc.Inventory, logg))
			r.Get("/{group}", controllers.StockBalance(svc.Inventory, logg))
			r.With(adminOnly).Put("/{group}/threshold", controllers.StockSetThreshold(svc.Inventory, logg))
		})

		r.Route("/v1/donors", func(r chi.Router) {
			r.Get("/", controllers.DonorList(svc.Donors, logg))
			r.Post("/", controllers.DonorRegister(svc.Donors, logg))
			r.Get("/{donorId}", controllers.DonorDetail(svc.Donors, logg))
			r.Post("/{donorId}/donations", controllers.DonorRecordDonation(svc.Donations, logg))
		})
		r.Get("/v1/donations", controllers.DonationList(svc.Donations, logg))

		r.Route("/v1/recipients", func(r chi.Router) {
			r.Get("/", controllers.RecipientList(svc.Recipients, logg))
			r.Post("/", controllers.RecipientRegister(svc.Recipients, logg))
			r.Get("/{recipientId}", controllers.RecipientDetail(svc.Recipients, logg))
		})

		r.Route("/v1/requests", func(r chi.Router) {
			r.Get("/", controllers.RequestList(svc.Requests, logg))
			r.Post("/", controllers.RequestCreate(svc.Requests, logg))
			r.Get("/{requestId}", controllers.RequestDetail(svc.Requests, logg))
			r.Post("/{requestId}/approve", controllers.RequestApprove(svc.Requests, logg))
			r.Post("/{requestId}/reject", controllers.RequestReject(svc.Requests, logg))
			r.Post("/{requestId}/issue", controllers.RequestIssue(svc.Requests, logg))
		})
		r.Get("/v1/issuances", controllers.IssuanceList(svc.Requests, logg))

		r.Get("/v1/dashboard", controllers.DashboardOverview(svc.Dashboard, logg))

		r.Route("/v1/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(svc.Notifications, logg))
			r.Post("/{alertId}/acknowledge", controllers.AcknowledgeAlert(svc.Notifications, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/audit-logs", controllers.AdminAuditLogs(svc.Audit, logg))
		})
	})

	return r
}
