package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/engffsantos/easyStock360/internal/platform/httpx"
)

// Handler exposes settings endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, validate *httpx.Validator) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{key}", h.get)
	r.Post("/{key}", h.initialize)
	r.Put("/{key}", h.update)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := h.validate.Decode(r, &input); err != nil {
		h.fail(w, err)
		return
	}
	s, err := h.service.Initialize(r.Context(), chi.URLParam(r, "key"), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := h.validate.Decode(r, &input); err != nil {
		h.fail(w, err)
		return
	}
	s, err := h.service.Update(r.Context(), chi.URLParam(r, "key"), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("settings request", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
