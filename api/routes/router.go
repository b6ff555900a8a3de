package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stocktrailhq/stocktrail-backend/api/controllers"
	"github.com/stocktrailhq/stocktrail-backend/api/middleware"
	"github.com/stocktrailhq/stocktrail-backend/internal/activity"
	"github.com/stocktrailhq/stocktrail-backend/internal/auth"
	"github.com/stocktrailhq/stocktrail-backend/internal/inventory"
	"github.com/stocktrailhq/stocktrail-backend/internal/locations"
	"github.com/stocktrailhq/stocktrail-backend/internal/products"
	"github.com/stocktrailhq/stocktrail-backend/internal/sales"
	"github.com/stocktrailhq/stocktrail-backend/pkg/config"
	"github.com/stocktrailhq/stocktrail-backend/pkg/db"
	"github.com/stocktrailhq/stocktrail-backend/pkg/logger"
	"github.com/stocktrailhq/stocktrail-backend/pkg/metrics"
	"github.com/stocktrailhq/stocktrail-backend/pkg/redis"
)

// RouterParams bundles the wired services the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	HTTPMx    *metrics.HTTPMetrics
	Activity  *activity.Recorder
	Auth      auth.Service
	Products  products.Service
	Locations locations.Service
	Inventory inventory.Service
	Sales     sales.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMx),
		middleware.CORS(cfg.CORS.ClientURL),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(p.DB, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		var limiter middleware.RateLimiterStore
		if p.Redis != nil {
			limiter = p.Redis
		}
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).
			Post("/login", controllers.AuthLogin(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireKnownRole(logg))
		r.Use(middleware.ActivityLog(p.Activity))

		r.Get("/auth/profile", controllers.AuthProfile(p.Auth, logg))
		r.Put("/auth/change-password", controllers.AuthChangePassword(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Post("/auth/register", controllers.AuthRegister(p.Auth, logg))
			r.Get("/users", controllers.UsersList(p.Auth, logg))
			r.Put("/users/{id}", controllers.UsersUpdate(p.Auth, logg))
			r.Get("/activity", controllers.ActivityList(p.Activity, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(p.Products, logg))
			r.Get("/categories", controllers.ProductsCategories(p.Products, logg))
			r.Get("/brands", controllers.ProductsBrands(p.Products, logg))
			r.Get("/{id}", controllers.ProductsGet(p.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManagerOrAdmin(logg))
				r.Post("/", controllers.ProductsCreate(p.Products, logg))
				r.Put("/{id}", controllers.ProductsUpdate(p.Products, logg))
				r.Delete("/{id}", controllers.ProductsRetire(p.Products, logg))
			})
		})

		// Locations are admin territory end to end; managers only ever see
		// their assignments through the inventory and sales surfaces.
		r.Route("/locations", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/", controllers.LocationsList(p.Locations, logg))
			r.Get("/{id}", controllers.LocationsGet(p.Locations, logg))
			r.Post("/", controllers.LocationsCreate(p.Locations, logg))
			r.Put("/{id}", controllers.LocationsUpdate(p.Locations, logg))
			r.Delete("/{id}", controllers.LocationsRetire(p.Locations, logg))
			r.Get("/{id}/managers", controllers.LocationsManagers(p.Locations, logg))
			r.Post("/{id}/managers", controllers.LocationsAssignManager(p.Locations, logg))
			r.Delete("/{id}/managers/{userID}", controllers.LocationsRemoveManager(p.Locations, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(p.Inventory, logg))
			r.Get("/low-stock", controllers.InventoryLowStock(p.Inventory, logg))
			r.Get("/transactions", controllers.InventoryTransactions(p.Inventory, logg))
			r.Post("/stock", controllers.InventoryApply(p.Inventory, logg))
			r.Post("/stock/bulk", controllers.InventoryBulk(p.Inventory, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SalesList(p.Sales, logg))
			r.Get("/summary", controllers.SalesSummary(p.Sales, logg))
			r.Post("/", controllers.SalesCreate(p.Sales, logg))
			r.Post("/bulk-upload", controllers.SalesBulkUpload(p.Sales, logg))
			r.Get("/{id}", controllers.SalesGet(p.Sales, logg))
			r.Put("/{id}", controllers.SalesUpdate(p.Sales, logg))
			r.Delete("/{id}", controllers.SalesDelete(p.Sales, logg))
		})
	})

	return r
}
