package tenant

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Handler exposes company selection endpoints.
type Handler struct {
	logger    *slog.Logger
	resolver  *Resolver
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, resolver *Resolver) *Handler {
	return &Handler{logger: logger, resolver: resolver, validator: httpx.NewValidator()}
}

// MountRoutes registers tenant routes. Requires RequireUser upstream.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/empresas", h.list)
	r.Post("/select", h.selectCompany)
}

type selectForm struct {
	CompanyID int64 `json:"empresa_id" validate:"required,gt=0"`
}

type companyOption struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Selected bool   `json:"selecionada"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserFromContext(r.Context())
	linked, err := h.resolver.members.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list user companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	current, err := h.resolver.Resolve(r.Context(), userID)
	if err != nil && !errors.Is(err, shared.ErrNoTenantSelected) {
		httpx.RespondError(w, err)
		return
	}
	options := make([]companyOption, 0, len(linked))
	for _, c := range linked {
		options = append(options, companyOption{ID: c.ID, Name: c.Name, Selected: c.ID == current.CompanyID})
	}
	httpx.OK(w, http.StatusOK, "empresas", options)
}

func (h *Handler) selectCompany(w http.ResponseWriter, r *http.Request) {
	var form selectForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	userID := shared.UserFromContext(r.Context())
	if err := h.resolver.Select(r.Context(), userID, form.CompanyID); err != nil {
		if shared.KindOf(err) == shared.KindInternal {
			h.logger.Error("select company", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("company selected", slog.Int64("user_id", userID), slog.Int64("company_id", form.CompanyID))
	httpx.OK(w, http.StatusOK, "empresa_id", form.CompanyID)
}
