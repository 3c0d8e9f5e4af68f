package clients

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Handler exposes client endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	clients, pagination, err := h.service.List(r.Context(), tenant, ListFilter{Search: q.Get("search"), Page: page, PerPage: perPage})
	if err != nil {
		h.fail(w, "list clients failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok", "clientes": clients, "paginacao": pagination})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	client, err := h.service.Get(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "get client failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "cliente", client)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form ClientForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.service.Create(r.Context(), tenant, form)
	if err != nil {
		h.fail(w, "create client failed", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "cliente", client)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var form ClientForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, err := h.service.Update(r.Context(), tenant, id, form)
	if err != nil {
		h.fail(w, "update client failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "cliente", client)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), tenant, id); err != nil {
		h.fail(w, "delete client failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

func (h *Handler) autocomplete(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	id, _ := strconv.ParseInt(q.Get("id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	suggestions, err := h.service.Autocomplete(r.Context(), tenant, q.Get("term"), id, limit)
	if err != nil {
		h.fail(w, "autocomplete clients failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, suggestions)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (shared.TenantContext, int64, bool) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return tenant, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.ErrNotFound)
		return tenant, 0, false
	}
	return tenant, id, true
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch shared.KindOf(err) {
	case shared.KindInternal:
		h.logger.Error(msg, slog.Any("error", err))
	case shared.KindConflict:
		h.logger.Warn(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
