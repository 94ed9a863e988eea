// internal/app/features/studies/routes.go
package studies

import (
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/studies. Every route needs a signed-in member
// of a tenant; the workflow table decides who may set which status.
func Routes(h *Handler, guard *auth.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Protect)

	r.Get("/", h.HandleList)
	r.Get("/counts", h.HandleCounts)

	r.Route("/{id}", func(sr chi.Router) {
		sr.Get("/", h.HandleGet)
		sr.With(auth.RequireRole(roles.Assigners...)).Post("/assign", h.HandleAssign)
		sr.Post("/status", h.HandleStatus)

		sr.Get("/notes", h.HandleListNotes)
		sr.Post("/notes", h.HandleAddNote)
		sr.Post("/notes/{noteId}/replies", h.HandleReply)
	})
	return r
}
