package finance

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/platform/httpx"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// Handler exposes financial entry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, validate *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entries", h.list)
	r.Post("/entries", h.create)
	r.Get("/entries/{id}", h.get)
	r.Post("/entries/{id}/pay", h.pay)
	r.Delete("/entries/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	saleID, err := httpx.QueryID(r, "sale_id")
	if err != nil {
		h.fail(w, err)
		return
	}
	filter := ListFilter{Type: EntryType(q.Get("type")), SaleID: saleID}
	if raw := q.Get("status"); raw != "" {
		status, err := installments.ParseStatus(raw)
		if err != nil {
			h.fail(w, err)
			return
		}
		filter.Status = status
	}
	if filter.Type != "" && filter.Type != TypeIncome && filter.Type != TypeExpense {
		h.fail(w, shared.Invalidf("unknown entry type %q", filter.Type))
		return
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateEntryInput
	if err := h.validate.Decode(r, &input); err != nil {
		h.fail(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	entry, err := h.service.MarkPaid(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
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

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("finance request", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
