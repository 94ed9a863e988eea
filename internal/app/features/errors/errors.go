// Package errors writes JSON error responses for feature handlers and maps
// the sentinel errors of the stores and services to HTTP statuses.
package errors

import (
	stderrors "errors"
	"net/http"

	doctorstore "github.com/dalemusser/radhub/internal/app/store/doctors"
	labstore "github.com/dalemusser/radhub/internal/app/store/labs"
	notestore "github.com/dalemusser/radhub/internal/app/store/notes"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	templatestore "github.com/dalemusser/radhub/internal/app/store/templates"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/orgcode"
	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/dalemusser/radhub/internal/app/system/signin"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"go.mongodb.org/mongo-driver/mongo"
)

type mapping struct {
	err    error
	status int
	msg    string // empty: use err.Error()
}

// known is checked in order; the first errors.Is match wins.
var known = []mapping{
	{mongo.ErrNoDocuments, http.StatusNotFound, "Not found"},

	// validation
	{userstore.ErrEmailRequired, http.StatusBadRequest, ""},
	{userstore.ErrEmailInvalid, http.StatusBadRequest, "Invalid email address"},
	{userstore.ErrBadRole, http.StatusBadRequest, "Invalid role"},
	{userstore.ErrOrgNeeded, http.StatusBadRequest, ""},
	{organizationstore.ErrNameRequired, http.StatusBadRequest, ""},
	{organizationstore.ErrBadStatus, http.StatusBadRequest, ""},
	{labstore.ErrInvalid, http.StatusBadRequest, ""},
	{studystore.ErrInvalid, http.StatusBadRequest, ""},
	{studystore.ErrUnknownBucket, http.StatusBadRequest, ""},
	{templatestore.ErrTitleRequired, http.StatusBadRequest, ""},
	{templatestore.ErrBadScope, http.StatusBadRequest, ""},
	{templatestore.ErrDoctorRequired, http.StatusBadRequest, ""},
	{templatestore.ErrOrgRequired, http.StatusBadRequest, ""},
	{notestore.ErrTextRequired, http.StatusBadRequest, ""},
	{notestore.ErrBadVisibility, http.StatusBadRequest, ""},
	{passwords.ErrEmptyPassword, http.StatusBadRequest, ""},
	{passwords.ErrTooLong, http.StatusBadRequest, "Password is too long"},
	{workflow.ErrUnknownStatus, http.StatusBadRequest, "Unknown workflow status"},
	{signin.ErrMissingCredentials, http.StatusBadRequest, "Please provide email and password"},

	// conflicts
	{userstore.ErrDuplicateEmail, http.StatusConflict, ""},
	{organizationstore.ErrDuplicateIdentifier, http.StatusConflict, ""},
	{labstore.ErrDuplicateIdentifier, http.StatusConflict, ""},
	{doctorstore.ErrDuplicateProfile, http.StatusConflict, ""},
	{studystore.ErrDuplicateStudy, http.StatusConflict, ""},
	{templatestore.ErrDuplicateTemplateTitle, http.StatusConflict, ""},
	{studystore.ErrStatusChanged, http.StatusConflict, "Study status was changed by someone else, reload and retry"},
	{workflow.ErrTerminal, http.StatusConflict, "Study is archived and cannot change status"},
	{workflow.ErrIllegalTransition, http.StatusConflict, "Status change is not allowed from the current status"},

	// authentication
	{signin.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{tenant.ErrOrgMismatch, http.StatusUnauthorized, "Not authorized, organization context changed"},

	// authorization
	{signin.ErrInactive, http.StatusForbidden, "Account is deactivated"},
	{signin.ErrNotLabStaff, http.StatusForbidden, "Only lab staff can sign in to the lab connector"},
	{signin.ErrNoLab, http.StatusForbidden, "No active lab is linked to this account"},
	{signin.ErrNotSuperAdmin, http.StatusForbidden, "Only super admin can switch organization"},
	{tenant.ErrNoOrganization, http.StatusForbidden, "Organization not found"},
	{tenant.ErrOrgInactive, http.StatusForbidden, "Organization is not active"},
	{tenant.ErrSubscriptionExpired, http.StatusForbidden, "Organization subscription has expired"},
	{workflow.ErrRoleNotAllowed, http.StatusForbidden, "Your role cannot set this status"},
	{notestore.ErrNotVisible, http.StatusForbidden, "You do not have access to this note"},

	{orgcode.ErrExhausted, http.StatusServiceUnavailable, "Could not allocate an organization identifier, try again"},
}

// Classify returns the HTTP status and client message for err. Unknown
// errors are 500 with a generic message.
func Classify(err error) (int, string) {
	for _, m := range known {
		if stderrors.Is(err, m.err) {
			if m.msg == "" {
				return m.status, capitalize(m.err.Error())
			}
			return m.status, m.msg
		}
	}
	return http.StatusInternalServerError, "Server error"
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
