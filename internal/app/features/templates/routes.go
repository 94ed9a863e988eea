// internal/app/features/templates/routes.go
package templates

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// writers may create and edit report templates.
var writers = []string{roles.SuperAdmin, roles.Admin, roles.Owner, roles.Radiologist, roles.DoctorAccount}

// Routes mounts under /api/templates.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Protect)

	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
	r.With(auth.RequireRole(writers...)).Post("/", h.HandleCreate)
	r.With(auth.RequireRole(writers...)).Put("/{id}", h.HandleUpdate)
	r.With(auth.RequireRole(roles.OrgAdmins...)).Delete("/{id}", h.HandleDeactivate)
	return r
}
