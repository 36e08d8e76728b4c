package orders

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type ConfirmOrderRequest struct {
	ConfirmedBy string `json:"confirmed_by" validate:"required"`
}

type ListOrdersResponse struct {
	Orders []SalesOrder `json:"orders"`
	Total  int          `json:"total"`
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales-orders", h.List)
	r.Get("/sales-orders/{id}", h.Show)
	r.Post("/quotations/{id}/convert", h.Convert)
	r.Post("/sales-orders/{id}/confirm", h.Confirm)
	r.Post("/sales-orders/{id}/cancel", h.Cancel)
	r.Post("/sales-orders/{id}/mark-paid", h.MarkPaid)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Status:       Status(r.URL.Query().Get("status")),
		CustomerCode: r.URL.Query().Get("customer"),
		Search:       r.URL.Query().Get("search"),
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}
	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list sales orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListOrdersResponse{Orders: result, Total: total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	quotationID, ok := h.urlID(w, r)
	if !ok {
		return
	}
	order, err := h.service.ConvertFromQuotation(r.Context(), quotationID)
	if err != nil {
		h.logger.Error("convert quotation", slog.Int64("quotation_id", quotationID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	var req ConfirmOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.WrapError(err, shared.KindValidation, "confirmed_by is required"))
		return
	}

	order, err := h.service.Confirm(r.Context(), id, req.ConfirmedBy)
	if err != nil {
		h.logger.Error("confirm sales order", slog.Int64("order_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkPaid)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid ID"))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
