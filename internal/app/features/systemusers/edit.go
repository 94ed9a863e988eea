package systemusers

import (
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
)

// HandleSetActive handles PATCH /api/admin/users/{id}/active. Only users of
// the caller's organization can be changed, and never the caller.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}
	_, org, ok := tenantOf(w, r, p)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "user")
	if !ok {
		return
	}

	var in activeRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	if in.IsActive == nil {
		apierrors.RenderBadRequest(w, r, "isActive is required")
		return
	}
	if id == p.User.ID {
		apierrors.RenderBadRequest(w, r, "You cannot change your own account status")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set user active")
	defer cancel()

	found, err := h.Users.SetActive(ctx, id, org, *in.IsActive)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error updating user", err, "")
		return
	}
	if !found {
		apierrors.RenderNotFound(w, r, "User not found")
		return
	}

	h.AuditLog.UserActiveChanged(ctx, r, p.User.ID, id, org, *in.IsActive)
	respond.OK(w, http.StatusOK, respond.Body{"message": "User updated", "isActive": *in.IsActive})
}
