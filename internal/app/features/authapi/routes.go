package authapi

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/auth.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/lab-login", h.HandleLabLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(guard.Protect)
		pr.Get("/me", h.HandleMe)
		pr.Post("/logout", h.HandleLogout)
		pr.Post("/refresh-token", h.HandleRefresh)

		pr.Group(func(sa chi.Router) {
			sa.Use(auth.RequireRole(roles.SuperAdmin))
			sa.Post("/switch-organization", h.HandleSwitchOrganization)
			sa.Get("/organizations", h.HandleOrganizations)
		})
	})
	return r
}
