package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes read-only ledger views. Writes happen only inside
// the order confirmation and cancellation transactions.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory/reservations/sales-orders/{orderID}", h.ListForOrder)
	r.Get("/inventory/reserved/{productID}", h.ReservedBalance)
}

func (h *Handler) ListForOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid order ID"))
		return
	}
	entries, err := h.repo.ListByReference(r.Context(), ReferenceTypeSalesOrder, orderID)
	if err != nil {
		h.logger.Error("list reservations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"reservations":   entries,
		"total_reserved": TotalReserved(entries),
	})
}

func (h *Handler) ReservedBalance(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid product ID"))
		return
	}
	balance, err := h.repo.ReservedBalance(r.Context(), productID)
	if err != nil {
		h.logger.Error("reserved balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product_id": productID, "reserved": balance})
}
