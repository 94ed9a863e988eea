// Package roles defines the closed role vocabulary and the capability-set
// model used for authorization.
//
// A user is granted the union of their primary role and their account
// roles. Authorization checks intersect that set with the roles a route
// allows; the primary role is only a presentation preference.
package roles

import (
	"sort"

	"github.com/dalemusser/radhub/internal/app/system/normalize"
)

const (
	SuperAdmin      = "super_admin"
	Admin           = "admin"
	Owner           = "owner"
	LabStaff        = "lab_staff"
	DoctorAccount   = "doctor_account"
	GroupID         = "group_id"
	Assignor        = "assignor"
	Radiologist     = "radiologist"
	Verifier        = "verifier"
	Physician       = "physician"
	Receptionist    = "receptionist"
	Billing         = "billing"
	Typist          = "typist"
	DashboardViewer = "dashboard_viewer"
)

// All lists every valid role in declaration order.
var All = []string{
	SuperAdmin, Admin, Owner, LabStaff, DoctorAccount, GroupID, Assignor,
	Radiologist, Verifier, Physician, Receptionist, Billing, Typist, DashboardViewer,
}

var valid = func() map[string]struct{} {
	m := make(map[string]struct{}, len(All))
	for _, r := range All {
		m[r] = struct{}{}
	}
	return m
}()

// IsValid reports whether role is one of the known roles. The input is
// compared verbatim; callers normalize first.
func IsValid(role string) bool {
	_, ok := valid[role]
	return ok
}

// Set is a set of granted roles.
type Set map[string]struct{}

// NewSet builds a Set from role names, normalizing each and dropping
// unknown or empty values.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		n = normalize.Role(n)
		if IsValid(n) {
			s[n] = struct{}{}
		}
	}
	return s
}

// Of returns the roles granted to an account: its primary role plus any
// account roles.
func Of(primary string, accountRoles []string) Set {
	names := make([]string, 0, len(accountRoles)+1)
	names = append(names, primary)
	names = append(names, accountRoles...)
	return NewSet(names...)
}

// Has reports whether role is in the set.
func (s Set) Has(role string) bool {
	_, ok := s[normalize.Role(role)]
	return ok
}

// HasAny reports whether the set shares at least one role with want.
func (s Set) HasAny(want ...string) bool {
	for _, w := range want {
		if s.Has(w) {
			return true
		}
	}
	return false
}

// Intersects reports whether s and other share at least one role.
func (s Set) Intersects(other Set) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for r := range small {
		if _, ok := big[r]; ok {
			return true
		}
	}
	return false
}

// Slice returns the roles sorted by name.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Common allow-lists.
var (
	// OrgAdmins manage users and labs inside their organization.
	OrgAdmins = []string{SuperAdmin, Admin, Owner}
	// UserCreators may issue credentials to new users.
	UserCreators = []string{SuperAdmin, Admin, Owner, GroupID}
	// Assigners route studies to radiologists.
	Assigners = []string{Assignor, Admin, Owner, GroupID, SuperAdmin}
)
