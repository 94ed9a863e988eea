package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func withRole(r *http.Request, role string, accountRoles ...string) *http.Request {
	return auth.WithTestUser(r, &auth.Principal{User: models.User{
		ID: primitive.NewObjectID(), Role: role, AccountRoles: accountRoles, IsActive: true,
	}})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		req  func() *http.Request
		want int
	}{
		{"no user", func() *http.Request { return httptest.NewRequest("GET", "/", nil) }, http.StatusUnauthorized},
		{"primary role allowed", func() *http.Request {
			return withRole(httptest.NewRequest("GET", "/", nil), roles.Admin)
		}, http.StatusOK},
		{"primary role denied", func() *http.Request {
			return withRole(httptest.NewRequest("GET", "/", nil), roles.Billing)
		}, http.StatusForbidden},
		{"account role grants access", func() *http.Request {
			return withRole(httptest.NewRequest("GET", "/", nil), roles.Billing, roles.Owner)
		}, http.StatusOK},
		{"role spelled differently", func() *http.Request {
			return withRole(httptest.NewRequest("GET", "/", nil), "Owner")
		}, http.StatusOK},
	}

	h := auth.RequireRole(roles.Admin, roles.Owner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req())
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPrincipal_OrganizationIdentifier(t *testing.T) {
	tests := []struct {
		name string
		p    auth.Principal
		want string
	}{
		{"tenant user ignores token org", auth.Principal{
			User:  models.User{Role: roles.Admin, OrganizationIdentifier: "ABCD"},
			Token: auth.TokenContext{OrganizationIdentifier: "WXYZ"},
		}, "ABCD"},
		{"super_admin uses token org", auth.Principal{
			User:  models.User{Role: roles.SuperAdmin, OrganizationIdentifier: "ABCD"},
			Token: auth.TokenContext{OrganizationIdentifier: "WXYZ"},
		}, "WXYZ"},
		{"super_admin without token org", auth.Principal{
			User: models.User{Role: roles.SuperAdmin, OrganizationIdentifier: "ABCD"},
		}, "ABCD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.OrganizationIdentifier(); got != tt.want {
				t.Errorf("OrganizationIdentifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrincipal_OrganizationID(t *testing.T) {
	own := primitive.NewObjectID()
	switched := primitive.NewObjectID()

	tests := []struct {
		name   string
		p      auth.Principal
		want   primitive.ObjectID
		wantOK bool
	}{
		{"tenant user", auth.Principal{
			User:  models.User{Role: roles.Admin, OrganizationID: &own},
			Token: auth.TokenContext{OrganizationID: switched.Hex()},
		}, own, true},
		{"super_admin switched", auth.Principal{
			User:  models.User{Role: roles.SuperAdmin, OrganizationID: &own},
			Token: auth.TokenContext{OrganizationID: switched.Hex()},
		}, switched, true},
		{"super_admin without any org", auth.Principal{
			User: models.User{Role: roles.SuperAdmin},
		}, primitive.NilObjectID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.p.OrganizationID()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("OrganizationID() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
