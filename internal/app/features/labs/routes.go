package labs

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/admin/labs.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Protect)
	r.Use(auth.RequireRole(roles.OrgAdmins...))

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	return r
}
