package shared

import (
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/system/auth"
)

// Tenant returns the caller and the organization identifier they work in.
// It writes a 401 without a principal and a 400 when a super_admin has
// not switched into an organization.
func Tenant(w http.ResponseWriter, r *http.Request) (*auth.Principal, string, bool) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return nil, "", false
	}
	org := p.OrganizationIdentifier()
	if org == "" {
		apierrors.RenderBadRequest(w, r, "Switch to an organization first")
		return nil, "", false
	}
	return p, org, true
}
