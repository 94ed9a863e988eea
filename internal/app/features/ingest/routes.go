package ingest

import (
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/ingest.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.requireAPIKey)

	r.Post("/studies", h.HandleStudy)
	r.Post("/studies/batch", h.HandleBatch)
	return r
}

// requireAPIKey compares the X-API-Key header against the configured key
// in constant time. With no key configured ingest is switched off.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.APIKey == "" {
			apierrors.RenderServiceUnavailable(w, r, "Ingest is not configured")
			return
		}
		if !passwords.SecretsEqual(h.APIKey, r.Header.Get(APIKeyHeader)) {
			apierrors.RenderUnauthorized(w, r, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
