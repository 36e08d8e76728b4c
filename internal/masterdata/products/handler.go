package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Show)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Deactivate)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort_by"),
		SortDir: r.URL.Query().Get("sort_dir"),
		Page:    queryInt(r, "page", 1),
		Limit:   queryInt(r, "limit", 50),
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}

	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListProductsResponse{Products: result, Total: total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid product ID"))
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.WrapError(err, shared.KindValidation, "invalid product payload"))
		return
	}
	product, err := h.productFromPayload(req.Code, req.Name, req.Unit, req.BasePrice, req.PriceListA, req.PriceListB, req.PriceListC, req.PriceListD)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), product)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid product ID"))
		return
	}
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.WrapError(err, shared.KindValidation, "invalid product payload"))
		return
	}
	product, err := h.productFromPayload(req.Code, req.Name, req.Unit, req.BasePrice, req.PriceListA, req.PriceListB, req.PriceListC, req.PriceListD)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product.IsActive = req.IsActive

	if err := h.service.Update(r.Context(), id, product); err != nil {
		h.logger.Error("update product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid product ID"))
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productFromPayload(code, name, unit, basePrice string, legacy ...*string) (Product, error) {
	base, err := decimal.NewFromString(basePrice)
	if err != nil {
		return Product{}, shared.NewError(shared.KindValidation, "base_price is not a valid decimal")
	}
	p := Product{Code: code, Name: name, Unit: unit, BasePrice: base}
	cols := []**decimal.Decimal{&p.PriceListA, &p.PriceListB, &p.PriceListC, &p.PriceListD}
	names := []string{"price_list_a", "price_list_b", "price_list_c", "price_list_d"}
	for i, raw := range legacy {
		if raw == nil {
			continue
		}
		v, err := decimal.NewFromString(*raw)
		if err != nil {
			return Product{}, shared.NewError(shared.KindValidation, "%s is not a valid decimal", names[i])
		}
		*cols[i] = &v
	}
	return p, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
