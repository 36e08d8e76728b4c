package pricing

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

type TierPayload struct {
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description,omitempty"`
	Multiplier   string `json:"multiplier" validate:"required"`
	IsDefault    bool   `json:"is_default"`
	DisplayOrder int    `json:"display_order"`
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
	r.Get("/pricing/quote", h.Quote)
	r.Get("/pricing/tiers", h.ListTiers)
	r.Post("/pricing/tiers", h.CreateTier)
	r.Put("/pricing/tiers/{id}", h.UpdateTier)
}

// Quote resolves a unit price for product_id under either an explicit
// tier or a customer's assigned tier.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "product_id is required"))
		return
	}

	tierCode := r.URL.Query().Get("tier")
	customerCode := r.URL.Query().Get("customer")

	var quote Quote
	switch {
	case tierCode != "":
		quote, err = h.service.Lookup(r.Context(), productID, tierCode)
	case customerCode != "":
		quote, err = h.service.LookupForCustomer(r.Context(), productID, customerCode)
	default:
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "either tier or customer is required"))
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.Tiers(r.Context())
	if err != nil {
		h.logger.Error("list price tiers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tiers": tiers})
}

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	tier, ok := h.tierFromBody(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreateTier(r.Context(), tier)
	if err != nil {
		h.logger.Error("create price tier", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid tier ID"))
		return
	}
	tier, ok := h.tierFromBody(w, r)
	if !ok {
		return
	}
	if err := h.service.UpdateTier(r.Context(), id, tier); err != nil {
		h.logger.Error("update price tier", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tier)
}

func (h *Handler) tierFromBody(w http.ResponseWriter, r *http.Request) (PriceTier, bool) {
	var req TierPayload
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "invalid request body"))
		return PriceTier{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.WrapError(err, shared.KindValidation, "invalid tier payload"))
		return PriceTier{}, false
	}
	multiplier, err := decimal.NewFromString(req.Multiplier)
	if err != nil {
		httpx.RespondError(w, shared.NewError(shared.KindValidation, "multiplier is not a valid decimal"))
		return PriceTier{}, false
	}
	return PriceTier{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Multiplier:   multiplier,
		IsDefault:    req.IsDefault,
		DisplayOrder: req.DisplayOrder,
	}, true
}
