package sales

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/engffsantos/easyStock360/internal/platform/httpx"
)

// Handler exposes the sale lifecycle over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
}

// NewHandler constructs the sales handler.
func NewHandler(logger *slog.Logger, service *Service, validate *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/payments/{paymentID}/pay", h.markPaid)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/convert", h.convert)
		r.Post("/cancel", h.cancel)
		r.Get("/payments", h.payments)
	})
}

// MountCustomerRoutes registers the purchase history under /customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Get("/{id}/purchases", h.purchases)
}

func (h *Handler) purchases(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	sales, err := h.service.Purchases(r.Context(), id, limit, offset)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID, err := httpx.QueryID(r, "customer_id")
	if err != nil {
		h.fail(w, err)
		return
	}
	req := ListSalesRequest{CustomerID: customerID}
	if raw := q.Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			h.fail(w, err)
			return
		}
		req.Status = status
	}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))
	sales, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := h.validate.Decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	sale, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuoteRequest
	if err := h.validate.Decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	sale, err := h.service.UpdateQuote(r.Context(), id, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	var st Settlement
	if r.ContentLength != 0 {
		if err := h.validate.Decode(r, &st); err != nil {
			h.fail(w, err)
			return
		}
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	sale, err := h.service.Convert(r.Context(), id, st)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	sale, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	payments, err := h.service.Payments(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	paymentID, err := httpx.PathID(r, "paymentID")
	if err != nil {
		h.fail(w, err)
		return
	}
	payment, err := h.service.MarkPaymentPaid(r.Context(), paymentID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("sales request", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
