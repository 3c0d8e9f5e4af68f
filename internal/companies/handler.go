package companies

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Handler exposes company endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

type memberForm struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form CompanyForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.Create(r.Context(), shared.UserFromContext(r.Context()), form)
	if err != nil {
		h.fail(w, "create company failed", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "empresa", company)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.Current(r.Context(), tenant)
	if err != nil {
		h.fail(w, "get company failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "empresa", company)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form CompanyForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	company, err := h.service.UpdateCurrent(r.Context(), tenant, form)
	if err != nil {
		h.fail(w, "update company failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "empresa", company)
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form memberForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AddMember(r.Context(), tenant, form.UserID); err != nil {
		h.fail(w, "add company member failed", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "", nil)
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
