package api

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

type ProductHandler struct {
	service domain.ProductService
	logger  logger.Logger
}

func NewProductHandler(service domain.ProductService, logger logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ProductHandler) GetUnitTypes(w http.ResponseWriter, r *http.Request) {
	data := h.service.GetProductUnitTypes(r.Context())
	if data == nil {
		conflict(w, msgError)
		return
	}
	ok(w, data)
}

func (h *ProductHandler) AddUnitType(w http.ResponseWriter, r *http.Request) {
	var unitType domain.ProductUnitTypeModel
	if err := decodeAndValidate(r, &unitType); err != nil {
		badRequest(w, h.logger, r, validationMessage(err), err)
		return
	}

	boolOrConflict(w, h.service.AddProductUnitType(r.Context(), unitType))
}

func (h *ProductHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var product domain.ProductModel
	if err := decodeAndValidate(r, &product); err != nil {
		badRequest(w, h.logger, r, validationMessage(err), err)
		return
	}

	boolOrConflict(w, h.service.PurchaseProduct(r.Context(), product))
}

func (h *ProductHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var product domain.ProductModel
	if err := decodeAndValidate(r, &product); err != nil {
		badRequest(w, h.logger, r, validationMessage(err), err)
		return
	}

	outcomeResponse(w, h.service.SellProduct(r.Context(), product))
}

func (h *ProductHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	outletID, err := queryInt(r, "outletId", 0)
	if err != nil {
		badRequest(w, h.logger, r, "Invalid outlet id", err)
		return
	}

	data := h.service.GetInventory(r.Context(), r.PathValue("userId"), outletID)
	if data == nil {
		conflict(w, msgError)
		return
	}
	ok(w, data)
}

func (h *ProductHandler) Archive(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt(r, "productId")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid product id", err)
		return
	}

	outcomeResponse(w, h.service.ArchiveProduct(r.Context(), r.PathValue("userId"), productID))
}

func boolOrConflict(w http.ResponseWriter, success bool) {
	if success {
		ok(w, "")
		return
	}
	conflict(w, msgError)
}

// outcomeResponse reports accepted and rejected outcomes as true and false with
// 200, and a failure as a conflict.
func outcomeResponse(w http.ResponseWriter, outcome domain.Outcome) {
	switch outcome {
	case domain.OutcomeAccepted:
		ok(w, true)
	case domain.OutcomeRejected:
		ok(w, false)
	default:
		conflict(w, msgError)
	}
}

func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product/unit-types", h.GetUnitTypes)
	mux.HandleFunc("POST /api/product/unit-types", h.AddUnitType)
	mux.HandleFunc("POST /api/product/purchase", h.Purchase)
	mux.HandleFunc("POST /api/product/sell", h.Sell)
	mux.HandleFunc("GET /api/product/inventory/{userId}", h.GetInventory)
	mux.HandleFunc("POST /api/product/archive/{userId}/{productId}", h.Archive)
}
