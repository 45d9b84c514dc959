package api

import (
	"encoding/json"
	"net/http"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

const msgStoreExists = "Store Already Exists"

type OutletHandler struct {
	service domain.OutletService
	logger  logger.Logger
}

func NewOutletHandler(service domain.OutletService, logger logger.Logger) *OutletHandler {
	return &OutletHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OutletHandler) Add(w http.ResponseWriter, r *http.Request) {
	var outlet domain.OutletModel
	if err := decodeAndValidate(r, &outlet); err != nil {
		badRequest(w, h.logger, r, validationMessage(err), err)
		return
	}

	data := h.service.AddOutlet(r.Context(), outlet)
	switch {
	case data == nil:
		conflict(w, msgStoreExists)
	case len(data) == 0:
		conflict(w, msgError)
	default:
		ok(w, data)
	}
}

func (h *OutletHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var outlet domain.OutletModel
	if err := json.NewDecoder(r.Body).Decode(&outlet); err != nil || outlet.OutletID <= 0 {
		badRequest(w, h.logger, r, "Invalid outlet id", err)
		return
	}

	listOrConflict(w, h.service.ArchiveOutlet(r.Context(), outlet))
}

func (h *OutletHandler) Update(w http.ResponseWriter, r *http.Request) {
	var outlet domain.OutletModel
	if err := decodeAndValidate(r, &outlet); err != nil {
		badRequest(w, h.logger, r, validationMessage(err), err)
		return
	}

	listOrConflict(w, h.service.UpdateOutlet(r.Context(), outlet))
}

func listOrConflict(w http.ResponseWriter, data []domain.OutletModel) {
	if len(data) > 0 {
		ok(w, data)
		return
	}
	conflict(w, msgError)
}

func (h *OutletHandler) GetOutletsByUserID(w http.ResponseWriter, r *http.Request) {
	data := h.service.GetOutletsByUserID(r.Context(), r.PathValue("userId"))
	if data == nil {
		conflict(w, msgError)
		return
	}
	ok(w, data)
}

func (h *OutletHandler) GetOutlet(w http.ResponseWriter, r *http.Request) {
	outletID, err := pathInt(r, "outletId")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid outlet id", err)
		return
	}

	data := h.service.GetOutlet(r.Context(), outletID)
	if data == nil {
		conflict(w, msgError)
		return
	}
	ok(w, data)
}

// OrderSite answers 200 for both accepted and rejected orders; only a failed
// order is a conflict.
func (h *OutletHandler) OrderSite(w http.ResponseWriter, r *http.Request) {
	outletID, err := pathInt(r, "outletId")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid outlet id", err)
		return
	}

	outcome, msg := h.service.OrderSite(r.Context(), outletID)
	if outcome == domain.OutcomeFailed {
		conflict(w, msg)
		return
	}
	ok(w, msg)
}

func (h *OutletHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/outlet/add", h.Add)
	mux.HandleFunc("POST /api/outlet/archive", h.Archive)
	mux.HandleFunc("POST /api/outlet/update", h.Update)
	mux.HandleFunc("GET /api/outlet/user/{userId}", h.GetOutletsByUserID)
	mux.HandleFunc("GET /api/outlet/order-site/{outletId}", h.OrderSite)
	mux.HandleFunc("GET /api/outlet/{outletId}", h.GetOutlet)
}
