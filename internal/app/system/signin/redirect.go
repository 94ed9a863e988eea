package signin

import "github.com/dalemusser/radhub/internal/app/system/roles"

// DefaultRedirect is the landing route for roles without a dedicated
// dashboard.
const DefaultRedirect = "/dashboard"

var redirects = map[string]string{
	roles.SuperAdmin:      "/superadmin/dashboard",
	roles.Admin:           "/admin/dashboard",
	roles.Owner:           "/owner/dashboard",
	roles.LabStaff:        "/lab/dashboard",
	roles.DoctorAccount:   "/doctor/dashboard",
	roles.GroupID:         "/group/dashboard",
	roles.Assignor:        "/assignor/dashboard",
	roles.Radiologist:     "/radiologist/dashboard",
	roles.Verifier:        "/verifier/dashboard",
	roles.Physician:       "/physician/dashboard",
	roles.Receptionist:    "/receptionist/dashboard",
	roles.Billing:         "/billing/dashboard",
	roles.Typist:          "/typist/dashboard",
	roles.DashboardViewer: "/dashboard/viewer",
}

// RedirectFor returns the landing route for a primary role. Unknown roles
// get DefaultRedirect.
func RedirectFor(role string) string {
	if to, ok := redirects[role]; ok {
		return to
	}
	return DefaultRedirect
}
