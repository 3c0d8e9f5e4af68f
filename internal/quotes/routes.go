package quotes

import "github.com/go-chi/chi/v5"

// MountRoutes registers /orcamentos and /itens on the tenant scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orcamentos", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/itens", h.addItem)
		if h.printer != nil {
			r.Get("/{id}/imprimir", h.printHTML)
			r.Get("/{id}/pdf", h.printPDF)
		}
	})
	r.Route("/itens", func(r chi.Router) {
		r.Get("/{id}", h.showItem)
		r.Put("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
	})
}
