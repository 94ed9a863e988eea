package systemusers

import (
	"net/http"

	"github.com/dalemusser/radhub/internal/app/features/authapi"
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
)

// HandleList handles GET /api/admin/users.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}
	_, org, ok := tenantOf(w, r, p)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	users, err := h.Users.ListByOrganization(ctx, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing users", err, "")
		return
	}

	out := make([]authapi.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, authapi.NewUserView(authapi.ViewInput{User: u}))
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": out})
}
