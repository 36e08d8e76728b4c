package production

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type UpdateShipmentRequest struct {
	Slot     int    `json:"slot" validate:"required,min=1,max=8"`
	Quantity string `json:"quantity" validate:"required"`
}

type jobOrderResponse struct {
	*JobOrder
	Items []ItemView `json:"items"`
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
	r.Get("/job-orders", h.List)
	r.Get("/job-orders/{id}", h.Show)
	r.Post("/sales-orders/{id}/generate-job-order", h.Generate)
	r.Put("/job-order-items/{itemID}/shipment", h.UpdateShipment)
	r.Post("/job-orders/{id}/start", h.Start)
	r.Post("/job-orders/{id}/complete", h.Complete)
	r.Post("/job-orders/{id}/refresh-snapshots", h.RefreshSnapshots)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	result, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list job orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"job_orders": result, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}
	job, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobOrderResponse{JobOrder: job, Items: ViewItems(job.Items)})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}
	job, err := h.service.Generate(r.Context(), orderID)
	if err != nil {
		h.logger.Error("generate job order", slog.Int64("order_id", orderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobOrderResponse{JobOrder: job, Items: ViewItems(job.Items)})
}

func (h *Handler) UpdateShipment(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.urlID(w, r, "itemID")
	if !ok {
		return
	}
	var req UpdateShipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.WrapError(err, shared.KindValidation, "invalid shipment payload"))
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "quantity is not a valid decimal"))
		return
	}

	view, err := h.service.UpdateShipment(r.Context(), itemID, req.Slot, qty)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(w, r, h.service.Start)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(w, r, h.service.Complete)
}

func (h *Handler) RefreshSnapshots(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}
	job, err := h.service.RefreshInventorySnapshots(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobOrderResponse{JobOrder: job, Items: ViewItems(job.Items)})
}

func (h *Handler) transitionHandler(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}
	if err := op(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	job, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobOrderResponse{JobOrder: job, Items: ViewItems(job.Items)})
}

func (h *Handler) urlID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
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
