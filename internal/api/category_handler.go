package api

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

type CategoryHandler struct {
	service domain.CategoryService
	logger  logger.Logger
}

func NewCategoryHandler(service domain.CategoryService, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  logger,
	}
}

func (h *CategoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var category domain.CategoryModel
	if err := decodeAndValidate(r, &category); err != nil {
		badRequest(w, h.logger, r, validationMessage(err), err)
		return
	}

	boolOrConflict(w, h.service.AddCategory(r.Context(), category))
}

func (h *CategoryHandler) GetByOutlet(w http.ResponseWriter, r *http.Request) {
	outletID, err := pathInt(r, "outletId")
	if err != nil {
		badRequest(w, h.logger, r, "Invalid outlet id", err)
		return
	}

	data := h.service.GetCategories(r.Context(), outletID)
	if data == nil {
		conflict(w, msgError)
		return
	}
	ok(w, data)
}

func (h *CategoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/category", h.Add)
	mux.HandleFunc("GET /api/category/outlet/{outletId}", h.GetByOutlet)
}
