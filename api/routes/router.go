package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carni-kridi/attar-backend/api/controllers"
	"github.com/carni-kridi/attar-backend/api/middleware"
	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/internal/auth"
	"github.com/carni-kridi/attar-backend/internal/clients"
	"github.com/carni-kridi/attar-backend/internal/kridi"
	"github.com/carni-kridi/attar-backend/internal/stores"
	"github.com/carni-kridi/attar-backend/internal/users"
	"github.com/carni-kridi/attar-backend/pkg/config"
	"github.com/carni-kridi/attar-backend/pkg/logger"
	"github.com/carni-kridi/attar-backend/pkg/metrics"
	pkgredis "github.com/carni-kridi/attar-backend/pkg/redis"
)

// RequestStore backs idempotent replays and auth throttling.
type RequestStore interface {
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	requestStore RequestStore,
	sessions middleware.SessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	authService auth.Service,
	storeService stores.Service,
	userService users.Service,
	clientService clients.Service,
	kridiService kridi.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		httpMetrics.Middleware,
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentifierLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		0,
	)

	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiter          pkgredis.RateLimiter
	)
	if requestStore != nil {
		idempotencyStore = requestStore
		limiter = requestStore
	}
	idempotent := middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg)
	can := func(op access.Operation) func(http.Handler) http.Handler {
		return middleware.Authorize(op, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, readiness))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))

		r.Get("/ping", controllers.PublicPing())

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(authService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(authService, logg))
			r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))

			r.Get("/private/ping", controllers.PrivatePing())

			r.Post("/auth/logout", controllers.AuthLogout(authService, logg))
			r.Get("/auth/me", controllers.AuthMe(authService, logg))
			r.With(can(access.OpStoreSwitch)).Post("/auth/switch-store", controllers.AuthSwitchStore(authService, logg))

			r.Route("/stores", func(r chi.Router) {
				r.With(can(access.OpStoreRead)).Get("/", controllers.StoreList(storeService, logg))
				r.With(can(access.OpStoreCreate)).Post("/", controllers.StoreCreate(storeService, logg))
				r.Route("/{id}", func(r chi.Router) {
					r.With(can(access.OpStoreRead)).Get("/", controllers.StoreGet(storeService, logg))
					r.With(can(access.OpStoreUpdate)).Put("/", controllers.StoreUpdate(storeService, logg))
					r.With(can(access.OpStoreDelete)).Delete("/", controllers.StoreDelete(storeService, logg))
					r.With(can(access.OpStoreToggle)).Patch("/toggle", controllers.StoreToggle(storeService, logg))
					r.With(can(access.OpStoreSettings)).Get("/settings", controllers.StoreSettings(storeService, logg))
					r.With(can(access.OpStoreSettings)).Put("/settings", controllers.StoreUpdateSettings(storeService, logg))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.StoreContext(logg))

				r.Route("/users", func(r chi.Router) {
					r.With(can(access.OpUserList)).Get("/", controllers.StoreUsers(userService, logg))
					r.With(can(access.OpUserRoleUpdate)).Put("/{id}/role", controllers.UserUpdateRole(userService, logg))
				})

				r.Route("/clients", func(r chi.Router) {
					r.With(can(access.OpClientRead)).Get("/", controllers.ClientList(clientService, logg))
					r.With(can(access.OpClientCreate)).Post("/", controllers.ClientCreate(clientService, logg))
					r.With(can(access.OpClientExport)).Get("/export", controllers.ClientExport(clientService, logg))
					r.With(can(access.OpClientImport)).Post("/import", controllers.ClientImport(clientService, logg))
					r.Route("/{id}", func(r chi.Router) {
						r.With(can(access.OpClientRead)).Get("/", controllers.ClientGet(clientService, logg))
						r.With(can(access.OpClientUpdate)).Put("/", controllers.ClientUpdate(clientService, logg))
						r.With(can(access.OpClientDelete)).Delete("/", controllers.ClientDelete(clientService, logg))
						r.With(can(access.OpClientStatement)).Get("/statement", controllers.ClientStatement(clientService, logg))
					})
				})

				r.Route("/kridi", func(r chi.Router) {
					r.With(can(access.OpEntryRead)).Get("/", controllers.KridiList(kridiService, logg))
					r.With(can(access.OpEntryCreate), idempotent).Post("/", controllers.KridiCreate(kridiService, logg))
					r.With(can(access.OpEntryRead)).Get("/summary", controllers.KridiSummary(kridiService, logg))
					r.With(can(access.OpEntryRead)).Get("/recent", controllers.KridiRecent(kridiService, logg))
					r.With(can(access.OpEntryRead)).Get("/client/{clientId}", controllers.KridiByClient(kridiService, logg))
					r.Route("/{id}", func(r chi.Router) {
						r.With(can(access.OpEntryRead)).Get("/", controllers.KridiGet(kridiService, logg))
						r.With(can(access.OpEntryUpdate)).Put("/", controllers.KridiUpdate(kridiService, logg))
						r.With(can(access.OpEntryPayment), idempotent).Put("/payment", controllers.KridiPayment(kridiService, logg))
						r.With(can(access.OpEntryDelete)).Delete("/", controllers.KridiDelete(kridiService, logg))
					})
				})
			})
		})
	})

	return r
}
