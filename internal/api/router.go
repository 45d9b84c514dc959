package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/api/middleware"
	"storefront/pkg/logger"
)

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// NewRouter mounts every handler plus /metrics and wraps the mux in the
// recovery, tracing and metrics middlewares.
func NewRouter(log logger.Logger, handlers ...RouteRegistrar) http.Handler {
	mux := http.NewServeMux()

	for _, h := range handlers {
		h.RegisterRoutes(mux)
	}

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Storefront API"))
	})

	return middleware.Chain(mux,
		middleware.Recover(log),
		middleware.Metrics(mux),
		middleware.Tracing(mux),
	)
}
