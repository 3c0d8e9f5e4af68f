package catalog

import "github.com/go-chi/chi/v5"

// MountRoutes registers /produtos, /servicos and /catalogo on the tenant scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/produtos", func(r chi.Router) { h.mountKind(r, KindProduct) })
	r.Route("/servicos", func(r chi.Router) { h.mountKind(r, KindService) })
	r.Get("/catalogo/autocomplete", h.autocomplete)
}

func (h *Handler) mountKind(r chi.Router, kind Kind) {
	r.Get("/", h.list(kind))
	r.Post("/", h.create(kind))
	r.Get("/{id}", h.show(kind))
	r.Put("/{id}", h.update(kind))
	r.Delete("/{id}", h.delete(kind))
}
