package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"storefront/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// DatabaseChecker is the part of the connection manager the health checks use.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
	GetStats() map[string]interface{}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     DatabaseChecker
	cache  Pinger
	logger logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// NewHealthHandler reports the store and, when cache is not nil, the read
// cache. Only the store decides between 200 and 503; a failing cache marks the
// response degraded since reads fall back to the store.
func NewHealthHandler(db DatabaseChecker, cache Pinger, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	services := map[string]interface{}{}
	status, code := "healthy", http.StatusOK

	database := h.checkDatabase(ctx)
	services["database"] = database
	if database["status"] != "healthy" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	if h.cache != nil {
		cache := map[string]interface{}{"status": "healthy"}
		if err := h.cache.Ping(ctx); err != nil {
			cache = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			if status == "healthy" {
				status = "degraded"
			}
		}
		services["cache"] = cache
	}

	if status != "healthy" {
		h.logger.WarnContext(r.Context(), "Health check failed", map[string]interface{}{
			"status":   status,
			"services": services,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) map[string]interface{} {
	if h.db == nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "database connection is nil",
		}
	}

	if err := h.db.Ping(ctx); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	stats := h.db.GetStats()
	stats["status"] = "healthy"
	return stats
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
}
