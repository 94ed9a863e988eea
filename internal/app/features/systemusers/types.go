package systemusers

import (
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type doctorInput struct {
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
	Department     string `json:"department"`
}

type createRequest struct {
	Email          string       `json:"email"`
	FullName       string       `json:"fullName"`
	Role           string       `json:"role"`
	AccountRoles   []string     `json:"accountRoles"`
	Password       string       `json:"password"`
	LabID          string       `json:"labId"`
	VisibleColumns []string     `json:"visibleColumns"`
	Doctor         *doctorInput `json:"doctor"`
}

type activeRequest struct {
	IsActive *bool `json:"isActive"`
}

// privileged roles can only be granted by an org admin or super_admin,
// never by group_id.
var privileged = roles.NewSet(roles.Admin, roles.Owner, roles.GroupID)

// canGrant reports whether actor may create an account holding every role
// in want. Nobody creates super_admin accounts through the API.
func canGrant(actor roles.Set, want roles.Set) bool {
	if want.Has(roles.SuperAdmin) {
		return false
	}
	if actor.HasAny(roles.OrgAdmins...) {
		return true
	}
	return !want.Intersects(privileged)
}

// tenantOf returns the organization the caller administers, writing a 400
// when a super_admin has not switched into one.
func tenantOf(w http.ResponseWriter, r *http.Request, p *auth.Principal) (primitive.ObjectID, string, bool) {
	id, ok := p.OrganizationID()
	ident := p.OrganizationIdentifier()
	if !ok || ident == "" {
		apierrors.RenderBadRequest(w, r, "Switch to an organization first")
		return primitive.NilObjectID, "", false
	}
	return id, ident, true
}
