package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/belldesk-backend/api/controllers"
	"github.com/angelmondragon/belldesk-backend/api/middleware"
	"github.com/angelmondragon/belldesk-backend/internal/deposits"
	"github.com/angelmondragon/belldesk-backend/internal/luggage"
	"github.com/angelmondragon/belldesk-backend/internal/staff"
	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
	"github.com/angelmondragon/belldesk-backend/pkg/redis"
)

// Params carries everything the desk router needs. Nil pingers, a nil
// idempotency store and a nil gatherer disable the matching feature.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Luggage  luggage.Service
	Deposits deposits.Service
	Staff    staff.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.Desk.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.StaffCode(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Route("/luggage", func(r chi.Router) {
			r.Get("/", controllers.LuggageList(p.Luggage, logg))
			r.Post("/", controllers.LuggageCreate(p.Luggage, logg))
			r.Patch("/{id}", controllers.LuggageUpdateStatus(p.Luggage, logg))
			r.Delete("/{id}", controllers.LuggageDelete(p.Luggage, logg))
			r.Post("/{id}/archive", controllers.LuggageArchive(p.Luggage, logg))
		})

		r.Route("/archivio-dedicato", func(r chi.Router) {
			r.Get("/", controllers.ArchiveQuery(p.Luggage, logg))
			r.Post("/", controllers.ArchiveCreate(p.Luggage, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.StaffList(p.Staff, logg))
			r.Post("/", controllers.StaffCreate(p.Staff, logg))
			r.Delete("/{id}", controllers.StaffDelete(p.Staff, logg))
		})

		r.Route("/deposit", func(r chi.Router) {
			r.Get("/", controllers.DepositList(p.Deposits, logg))
			r.Post("/", controllers.DepositCreate(p.Deposits, logg))
			r.Get("/history", controllers.DepositHistory(p.Deposits, logg))
			r.Post("/release/{id}", controllers.DepositRelease(p.Deposits, logg))
			r.Delete("/{id}", controllers.DepositDelete(p.Deposits, logg))
		})
	})

	if cfg.FeatureFlags.ServeStatic && cfg.Desk.StaticDir != "" {
		r.Handle("/*", newStaticHandler(cfg.Desk.StaticDir))
	}

	return r
}
