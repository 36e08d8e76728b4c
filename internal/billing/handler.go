package billing

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

type RecordPaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
}

type invoiceResponse struct {
	*Invoice
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Balance       decimal.Decimal `json:"balance"`
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	clock    shared.Clock
}

func NewHandler(logger *slog.Logger, service *Service, clock shared.Clock) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), clock: clock}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Get("/invoices/{id}", h.Show)
	r.Post("/sales-orders/{id}/generate-invoice", h.Generate)
	r.Post("/invoices/{id}/payments", h.RecordPayment)
}

func (h *Handler) view(inv *Invoice) invoiceResponse {
	return invoiceResponse{
		Invoice:       inv,
		PaymentStatus: inv.StatusAt(h.clock.Now()),
		Balance:       inv.Balance(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	invoices, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	now := h.clock.Now()
	views := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		inv := invoices[i]
		views = append(views, invoiceResponse{
			Invoice:       &inv,
			PaymentStatus: inv.StatusAt(now),
			Balance:       inv.Balance(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": views, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.urlID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Generate(r.Context(), orderID)
	if err != nil {
		h.logger.Error("generate invoice", slog.Int64("order_id", orderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.WrapError(err, shared.KindValidation, "amount is required"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "amount is not a valid decimal"))
		return
	}

	inv, err := h.service.RecordPayment(r.Context(), id, amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
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
