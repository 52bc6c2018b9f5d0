package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caterbase/caterbase-backend/api/controllers"
	"github.com/caterbase/caterbase-backend/api/middleware"
	catalogsvc "github.com/caterbase/caterbase-backend/internal/catalog"
	customersvc "github.com/caterbase/caterbase-backend/internal/customers"
	ledgersvc "github.com/caterbase/caterbase-backend/internal/ledger"
	ordersvc "github.com/caterbase/caterbase-backend/internal/orders"
	paymentsvc "github.com/caterbase/caterbase-backend/internal/payments"
	staffsvc "github.com/caterbase/caterbase-backend/internal/staff"
	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db"
	"github.com/caterbase/caterbase-backend/pkg/enums"
	"github.com/caterbase/caterbase-backend/pkg/logger"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Staff     staffsvc.Service
	Customers customersvc.Service
	Catalog   catalogsvc.Service
	Orders    ordersvc.Service
	Payments  paymentsvc.Service
	Ledger    ledgersvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	svcs Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(logg, dbP))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.StaffLogin(svcs.Staff, logg))
	})

	// Customer self-service portal, authenticated by access key.
	r.Route("/api/v1/portal", func(r chi.Router) {
		r.Use(middleware.AccessKey(svcs.Customers, logg))
		r.Get("/me", controllers.PortalProfile(logg))
		r.Get("/orders", controllers.PortalOrders(svcs.Orders, logg))
	})

	// Back-office surface, authenticated by staff JWT.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/staff/me", controllers.StaffMe(svcs.Staff, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerRegister(svcs.Customers, logg))
			r.Get("/", controllers.CustomerList(svcs.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(svcs.Customers, logg))
			r.Patch("/{customerId}", controllers.CustomerUpdate(svcs.Customers, logg))
			r.Post("/{customerId}/access-key", controllers.CustomerIssueAccessKey(svcs.Customers, logg))
			r.Post("/{customerId}/remind", controllers.CustomerRemindPayment(svcs.Customers, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(svcs.Catalog, logg))
			r.Get("/", controllers.ProductList(svcs.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(svcs.Catalog, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(svcs.Catalog, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svcs.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Patch("/{orderId}", controllers.OrderUpdate(svcs.Orders, logg))
			r.Put("/{orderId}/items", controllers.OrderUpdateItems(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.OrderDelete(svcs.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentCreate(svcs.Payments, logg))
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
			r.Get("/{paymentId}", controllers.PaymentDetail(svcs.Payments, logg))
			r.Patch("/{paymentId}", controllers.PaymentUpdate(svcs.Payments, logg))
			r.Delete("/{paymentId}", controllers.PaymentDelete(svcs.Payments, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.StaffRoleAdmin), logg))
			r.Post("/staff", controllers.StaffCreateUser(svcs.Staff, logg))
			r.Get("/ledger/audit", controllers.LedgerAuditAll(svcs.Ledger, logg))
			r.Get("/ledger/audit/{customerId}", controllers.LedgerAudit(svcs.Ledger, logg))
		})
	})

	return r
}
