// Package auth resolves the authenticated principal of an API request and
// gates routes by role.
//
// Guard.Protect verifies the session token, re-loads the user from storage
// and re-checks account and organization state on every request. Only the
// subject id and the issuing organization context are taken from the
// token; everything mutable comes from the database.
package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenContext is the organization context the token was issued with. It
// can differ from the user's current organization; handlers compare the two
// to detect drift.
type TokenContext struct {
	OrganizationID         string
	OrganizationIdentifier string
	LabID                  string
	LabIdentifier          string
	Kind                   string
	Role                   string
}

// Principal is the authenticated caller attached to the request.
type Principal struct {
	User   models.User
	Roles  roles.Set
	Token  TokenContext
	Tenant tenant.Context
}

// OrganizationIdentifier is the tenant whose data the request may touch.
// A super_admin acts in the organization their token was issued for (see
// switch-organization); everyone else acts in their own organization.
func (p *Principal) OrganizationIdentifier() string {
	if p.IsSuperAdmin() && p.Token.OrganizationIdentifier != "" {
		return p.Token.OrganizationIdentifier
	}
	return p.User.OrganizationIdentifier
}

// OrganizationID is the id matching OrganizationIdentifier. ok is false
// when the principal acts in no organization.
func (p *Principal) OrganizationID() (primitive.ObjectID, bool) {
	if p.IsSuperAdmin() && p.Token.OrganizationID != "" {
		id, err := primitive.ObjectIDFromHex(p.Token.OrganizationID)
		return id, err == nil
	}
	if p.User.OrganizationID == nil {
		return primitive.NilObjectID, false
	}
	return *p.User.OrganizationID, true
}

// IsSuperAdmin reports whether the stored primary role is super_admin.
func (p *Principal) IsSuperAdmin() bool {
	return p.User.Role == roles.SuperAdmin
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentUser returns the principal attached by Protect.
func CurrentUser(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*Principal)
	return p, ok && p != nil
}

func withPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// WithTestUser attaches p to r without running Protect. Used by handler
// tests.
func WithTestUser(r *http.Request, p *Principal) *http.Request {
	if p.Roles == nil {
		p.Roles = roles.Of(p.User.Role, p.User.AccountRoles)
	}
	return withPrincipal(r, p)
}

// RequireRole returns middleware that allows the request when the caller's
// role set (primary role plus account roles) intersects allowed. It must
// run after Protect.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	want := roles.NewSet(allowed...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Not authorized", "")
				return
			}
			if !p.Roles.Intersects(want) {
				respond.Error(w, http.StatusForbidden, "User role is not authorized to access this route", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
