package systemusers

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/admin/users.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Protect)

	r.With(auth.RequireRole(roles.UserCreators...)).Get("/", h.HandleList)
	r.With(auth.RequireRole(roles.UserCreators...)).Post("/", h.HandleCreate)
	r.With(auth.RequireRole(roles.OrgAdmins...)).Patch("/{id}/active", h.HandleSetActive)
	return r
}
