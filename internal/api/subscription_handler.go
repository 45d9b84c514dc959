package api

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

type SubscriptionHandler struct {
	service domain.SubscriptionService
	logger  logger.Logger
}

func NewSubscriptionHandler(service domain.SubscriptionService, logger logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	subscriptionID, err := pathInt(r, "subscriptionId")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid subscription id", err)
		return
	}

	boolOrConflict(w, h.service.Subscribe(r.Context(), r.PathValue("userId"), subscriptionID))
}

func (h *SubscriptionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	ok(w, h.service.GetActiveSubscriptions(r.Context(), r.PathValue("userId")))
}

// GetHistory falls back to the configured page size when pageSize is not a
// positive number. Sizes above domain.MaxPageSize are rejected.
func (h *SubscriptionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	pageNo, err := pathInt(r, "pageNo")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid page number", err)
		return
	}
	pageSize, err := pathInt(r, "pageSize")
	if err != nil {
		pageSize = 0
	}
	if pageSize > domain.MaxPageSize {
		badRequest(w, h.logger, r, "Invalid page size, must be at most 100", nil)
		return
	}

	page := domain.Pagination{PageNo: pageNo, PageSize: pageSize}
	ok(w, h.service.GetSubscriptionHistory(r.Context(), page, r.PathValue("userId")))
}

func (h *SubscriptionHandler) HasSubscription(w http.ResponseWriter, r *http.Request) {
	subscriptionID, err := pathInt(r, "subscriptionId")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid subscription id", err)
		return
	}

	ok(w, h.service.HasSubscription(r.Context(), r.PathValue("userId"), subscriptionID))
}

func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/subscription/subscribe/{userId}/{subscriptionId}", h.Subscribe)
	mux.HandleFunc("GET /api/subscription/active/{userId}", h.GetActive)
	mux.HandleFunc("GET /api/subscription/history/{pageNo}/{pageSize}/{userId}", h.GetHistory)
	mux.HandleFunc("GET /api/subscription/has/{userId}/{subscriptionId}", h.HasSubscription)
}
