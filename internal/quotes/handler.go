package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/shared"
	"github.com/odyssey-erp/orcamento/report"
)

// Handler exposes quote and line item endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	printer   *Printer
	validator *validator.Validate
}

// NewHandler constructs a Handler. printer may be nil when printing is not wired.
func NewHandler(logger *slog.Logger, service *Service, printer *Printer) *Handler {
	return &Handler{logger: logger, service: service, printer: printer, validator: httpx.NewValidator()}
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
	clientID, _ := strconv.ParseInt(q.Get("cliente"), 10, 64)
	year, _ := strconv.Atoi(q.Get("ano"))
	entries, pagination, err := h.service.List(r.Context(), tenant, ListFilter{
		ClientID: clientID,
		Year:     year,
		Search:   q.Get("search"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		h.fail(w, "list quotes failed", err)
		return
	}
	views := make([]ListEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok", "orcamentos": views, "paginacao": pagination})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	quote, err := h.service.Get(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "get quote failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "orcamento", quote.View())
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenant, err := shared.TenantFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form QuoteForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Create(r.Context(), tenant, form)
	if err != nil {
		h.fail(w, "create quote failed", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "orcamento", quote.View())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var form QuoteForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Update(r.Context(), tenant, id, form)
	if err != nil {
		h.fail(w, "update quote failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "orcamento", quote.View())
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), tenant, id); err != nil {
		h.fail(w, "delete quote failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", nil)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	tenant, quoteID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var form ItemForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, totals, err := h.service.AddItem(r.Context(), tenant, quoteID, form)
	if err != nil {
		h.fail(w, "add quote item failed", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "item", itemView(item, totals))
}

func (h *Handler) showItem(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	item, totals, err := h.service.GetItem(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "get quote item failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "item", itemView(item, totals))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var form ItemForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, totals, err := h.service.UpdateItem(r.Context(), tenant, id, form)
	if err != nil {
		h.fail(w, "update quote item failed", err)
		return
	}
	httpx.OK(w, http.StatusOK, "item", itemView(item, totals))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	quoteID, totals, err := h.service.DeleteItem(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "delete quote item failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"orcamento": quoteID,
		"subtotal":  shared.NewMoney(totals.Subtotal),
		"total":     shared.NewMoney(totals.Total),
	})
}

func (h *Handler) printHTML(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	quote, err := h.service.Get(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "get quote failed", err)
		return
	}
	html, err := h.printer.HTML(r.Context(), tenant, quote)
	if err != nil {
		h.fail(w, "render quote failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (h *Handler) printPDF(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	quote, err := h.service.Get(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "get quote failed", err)
		return
	}
	doc, err := h.printer.PDF(r.Context(), tenant, quote)
	if errors.Is(err, report.ErrDisabled) {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "pdf rendering is not configured")
		return
	}
	if err != nil {
		if shared.KindOf(err) != shared.KindInternal {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("render quote pdf failed", slog.Any("error", err), slog.Int64("quote_id", id))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf rendering failed")
		return
	}
	filename := "orcamento-" + strconv.FormatInt(quote.Number, 10) + "-" + strconv.Itoa(quote.Year) + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+filename)
	w.Header().Set("X-Document-Id", doc.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func itemView(item LineItem, totals Totals) ItemView {
	return ItemView{
		Item:     viewOfItem(item),
		QuoteID:  item.QuoteID,
		Subtotal: shared.NewMoney(totals.Subtotal),
		Total:    shared.NewMoney(totals.Total),
	}
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
