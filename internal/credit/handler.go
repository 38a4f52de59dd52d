package credit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/engffsantos/easyStock360/internal/platform/httpx"
)

// Handler exposes credit ledger endpoints under /customers/{id}/credits.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, validate *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers credit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/credits", h.show)
	r.Post("/{id}/credits", h.grant)
	r.Post("/{id}/credits/liquidate", h.liquidate)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	balance, err := h.service.Balance(r.Context(), customerID)
	if err != nil {
		h.fail(w, err)
		return
	}
	lots, err := h.service.Lots(r.Context(), customerID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balance": balance, "lots": lots})
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	var input GrantInput
	if err := h.validate.Decode(r, &input); err != nil {
		h.fail(w, err)
		return
	}
	customerID, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	lot, err := h.service.Grant(r.Context(), customerID, input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lot)
}

func (h *Handler) liquidate(w http.ResponseWriter, r *http.Request) {
	var input LiquidateInput
	if err := h.validate.Decode(r, &input); err != nil {
		h.fail(w, err)
		return
	}
	customerID, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	receipt, err := h.service.Liquidate(r.Context(), customerID, input.Amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("credit request", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
