package routes

import (
	"net/http"

	"github.com/ateliermoda/moda-backend/api/controllers"
	"github.com/ateliermoda/moda-backend/api/middleware"
	addresssvc "github.com/ateliermoda/moda-backend/internal/address"
	authsvc "github.com/ateliermoda/moda-backend/internal/auth"
	cartsvc "github.com/ateliermoda/moda-backend/internal/cart"
	"github.com/ateliermoda/moda-backend/internal/catalog"
	"github.com/ateliermoda/moda-backend/internal/users"
	"github.com/ateliermoda/moda-backend/pkg/auth/session"
	"github.com/ateliermoda/moda-backend/pkg/config"
	"github.com/ateliermoda/moda-backend/pkg/logger"
	"github.com/ateliermoda/moda-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies carries everything the router needs. Optional entries
// (metrics, rate limit store, session checker) may be nil.
type Dependencies struct {
	Config         *config.Config
	Logger         *logger.Logger
	AuthService    authsvc.Service
	CartService    cartsvc.Service
	CatalogService catalog.Service
	AddressService addresssvc.Service
	UserRepo       *users.Repository
	SessionChecker session.AccessSessionChecker
	RateLimitStore middleware.RateLimitStore
	HTTPMetrics    *metrics.HTTPMetrics
	DBPinger       controllers.Pinger
	RedisPinger    controllers.Pinger
}

// New assembles the HTTP surface.
func New(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics(deps.HTTPMetrics))
	r.Use(middleware.Logging(logg))

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, deps.DBPinger, deps.RedisPinger, logg))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requireAuth := middleware.Auth(cfg.JWT, deps.SessionChecker, logg)
	resolveOwner := middleware.CartOwner(cfg.JWT, cfg.Session, logg)

	loginLimit := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerLimit := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerLimit, deps.RateLimitStore, logg)).
				Post("/register", controllers.AuthRegister(deps.AuthService, logg))
			r.Get("/confirm", controllers.AuthConfirm(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginLimit, deps.RateLimitStore, logg)).
				Post("/login", controllers.AuthLogin(deps.AuthService, cfg.Session, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.CatalogService, logg))
			r.Get("/{slug}", controllers.ProductsGet(deps.CatalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(resolveOwner)
			r.Get("/", controllers.CartView(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Patch("/items/{variationID}", controllers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{variationID}", controllers.CartRemoveItem(deps.CartService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", controllers.UsersMe(deps.UserRepo, logg))
			r.Patch("/me", controllers.UsersUpdateMe(deps.UserRepo, logg))
			r.Route("/me/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressesList(deps.AddressService, logg))
				r.Post("/", controllers.AddressesCreate(deps.AddressService, logg))
				r.Put("/{addressID}/default", controllers.AddressesSetDefault(deps.AddressService, logg))
				r.Delete("/{addressID}", controllers.AddressesDelete(deps.AddressService, logg))
			})
		})
	})

	return r
}
