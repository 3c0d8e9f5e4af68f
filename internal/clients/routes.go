package clients

import "github.com/go-chi/chi/v5"

// MountRoutes registers client routes under /clientes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/autocomplete", h.autocomplete)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}
