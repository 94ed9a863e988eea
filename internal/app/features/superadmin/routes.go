package superadmin

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/superadmin. Every route is super_admin only.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Protect)
	r.Use(auth.RequireRole(roles.SuperAdmin))

	r.Get("/organizations", h.HandleList)
	r.Post("/organizations", h.HandleCreate)
	r.Delete("/organizations/{id}", h.HandleDeactivate)
	return r
}
