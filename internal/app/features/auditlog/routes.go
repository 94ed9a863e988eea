package auditlog

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/admin/audit.
//
// Admins and owners see their organization's events. A super_admin sees
// the organization of their token context, or every event when they have
// none.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Protect)
	r.Use(auth.RequireRole(roles.Admin, roles.Owner, roles.SuperAdmin))

	r.Get("/", h.HandleList)
	r.Get("/failed-logins", h.HandleFailedLogins)
	return r
}
