package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Handler exposes product, service and catalog search endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

func envelopeKey(kind Kind, plural bool) string {
	switch {
	case kind == KindService && plural:
		return "servicos"
	case kind == KindService:
		return "servico"
	case plural:
		return "produtos"
	default:
		return "produto"
	}
}

func views(items []Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		out = append(out, item.View())
	}
	return out
}

func (h *Handler) list(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := shared.TenantFromContext(r.Context())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		items, pagination, err := h.service.List(r.Context(), tenant, kind, ListFilter{Search: q.Get("search"), Page: page, PerPage: perPage})
		if err != nil {
			h.fail(w, "list catalog failed", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok", envelopeKey(kind, true): views(items), "paginacao": pagination})
	}
}

func (h *Handler) show(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, id, ok := h.scope(w, r)
		if !ok {
			return
		}
		item, err := h.service.Get(r.Context(), tenant, kind, id)
		if err != nil {
			h.fail(w, "get catalog item failed", err)
			return
		}
		httpx.OK(w, http.StatusOK, envelopeKey(kind, false), item.View())
	}
}

func (h *Handler) create(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := shared.TenantFromContext(r.Context())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var form ItemForm
		if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
			httpx.RespondError(w, err)
			return
		}
		item, err := h.service.Create(r.Context(), tenant, kind, form)
		if err != nil {
			h.fail(w, "create catalog item failed", err)
			return
		}
		httpx.OK(w, http.StatusCreated, envelopeKey(kind, false), item.View())
	}
}

func (h *Handler) update(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, id, ok := h.scope(w, r)
		if !ok {
			return
		}
		var form ItemForm
		if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
			httpx.RespondError(w, err)
			return
		}
		item, err := h.service.Update(r.Context(), tenant, kind, id, form)
		if err != nil {
			h.fail(w, "update catalog item failed", err)
			return
		}
		httpx.OK(w, http.StatusOK, envelopeKey(kind, false), item.View())
	}
}

func (h *Handler) delete(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, id, ok := h.scope(w, r)
		if !ok {
			return
		}
		if err := h.service.Delete(r.Context(), tenant, kind, id); err != nil {
			h.fail(w, "delete catalog item failed", err)
			return
		}
		httpx.OK(w, http.StatusOK, "", nil)
	}
}

func (h *Handler) autocomplete(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	suggestions, err := h.service.Autocomplete(r.Context(), tenant, q.Get("term"), limit)
	if err != nil {
		h.fail(w, "autocomplete catalog failed", err)
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
