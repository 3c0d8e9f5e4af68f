package companies

import "github.com/go-chi/chi/v5"

// MountRoutes registers company routes. POST /empresas only needs an authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/empresas", h.create)
}

// MountTenantRoutes registers routes that operate on the selected company.
func (h *Handler) MountTenantRoutes(r chi.Router) {
	r.Get("/empresa", h.show)
	r.Put("/empresa", h.update)
	r.Post("/empresa/usuarios", h.addMember)
}
