package web

import (
	"net/http"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/infra/web/handler"
	mw "github.com/DioGolang/GeoDispatch/internal/infra/web/middleware"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
)

type Handlers struct {
	Location *handler.Location
	Nearest  *handler.Nearest
	Tokens   *handler.Token
	Health   http.Handler
}

type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	Gatherer       prometheus.Gatherer
	// RateLimiter is optional.
	RateLimiter *mw.IPDispatcher
}

func NewRouter(cfg RouterConfig, h Handlers, log logger.Logger, m metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))
	r.Use(mw.MetricsWrapper(m))
	r.Use(mw.RequestLogger(log))

	if h.Health != nil {
		r.Handle("/health", h.Health)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler(log))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/nearest", h.Nearest.FindDrivers)
			r.Post("/{id}/location", h.Location.Submit)
			r.Put("/{id}/fcm-token", h.Tokens.RegisterDriver)
			r.Get("/{id}/fcm-token", h.Tokens.DriverStatus)
		})
		r.Route("/users", func(r chi.Router) {
			r.Put("/{id}/fcm-token", h.Tokens.RegisterUser)
			r.Get("/{id}/fcm-token", h.Tokens.UserStatus)
		})
		r.Get("/supermarkets/nearest", h.Nearest.FindSupermarkets)
	})

	return r
}
