package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolbus/internal/platform/middleware"
)

// Registrar is anything that can attach its routes to a chi router.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig collects the handlers and cross-cutting pieces the router
// needs. Validator may be nil; then no auth is enforced (used in tests).
type RouterConfig struct {
	Logger    *slog.Logger
	Validator middleware.TokenValidator
	Handlers  []Registrar
}

// NewRouter builds the full HTTP surface: health and metrics unauthenticated,
// everything else behind actor extraction.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		if cfg.Validator != nil {
			api.Use(middleware.RequireActor(cfg.Validator, cfg.Logger))
		}
		for _, h := range cfg.Handlers {
			h.Register(api)
		}
	})

	return r
}
