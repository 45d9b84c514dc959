package api

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

type CrashLogHandler struct {
	service domain.CrashLogService
	logger  logger.Logger
}

func NewCrashLogHandler(service domain.CrashLogService, logger logger.Logger) *CrashLogHandler {
	return &CrashLogHandler{
		service: service,
		logger:  logger,
	}
}

func (h *CrashLogHandler) GetCrashLogs(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		badRequest(w, h.logger, r, "Invalid page number", err)
		return
	}

	pageSize, err := queryInt(r, "page_size", domain.StandardPageSize)
	if err != nil || pageSize < 1 || pageSize > domain.MaxPageSize {
		badRequest(w, h.logger, r, "Invalid page size, must be between 1 and 100", err)
		return
	}

	logs, err := h.service.GetCrashLogs(r.Context(), page, pageSize)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Could not list crash logs", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, msgError)
		return
	}
	ok(w, logs)
}

func (h *CrashLogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/crash-logs", h.GetCrashLogs)
}
