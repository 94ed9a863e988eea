package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/tokens"
	"github.com/dalemusser/radhub/internal/domain/models"
)

// TestJWTSecret signs tokens in handler tests.
const TestJWTSecret = "radhub-test-secret-0123456789abcdef"

// NewCodec returns a token codec using TestJWTSecret.
func NewCodec(t *testing.T) *tokens.Codec {
	t.Helper()
	c, err := tokens.NewCodec(TestJWTSecret, "radhub-test")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

// IssueToken signs a one-hour user token for u in its own organization.
func IssueToken(t *testing.T, codec *tokens.Codec, u models.User) string {
	t.Helper()
	c := tokens.Claims{
		UserID:                 u.ID.Hex(),
		Role:                   u.Role,
		OrganizationIdentifier: u.OrganizationIdentifier,
		Kind:                   tokens.KindUser,
	}
	if u.OrganizationID != nil {
		c.OrganizationID = u.OrganizationID.Hex()
	}
	tok, err := codec.Issue(c, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

// Principal builds the principal the guard would attach for u acting in
// org. org may be nil for super_admin.
func Principal(u models.User, org *models.Organization) *auth.Principal {
	p := &auth.Principal{
		User:  u,
		Token: auth.TokenContext{Role: u.Role, OrganizationIdentifier: u.OrganizationIdentifier, Kind: tokens.KindUser},
	}
	if u.OrganizationID != nil {
		p.Token.OrganizationID = u.OrganizationID.Hex()
	}
	if org != nil {
		o := *org
		p.Tenant = tenant.Context{OrganizationID: o.ID, OrganizationIdentifier: o.Identifier, Org: &o}
	}
	return p
}

// WithUser attaches u to the request as if Guard.Protect had run.
// This bypasses token verification.
func WithUser(r *http.Request, u models.User, org *models.Organization) *http.Request {
	return auth.WithTestUser(r, Principal(u, org))
}

// JSONRequest builds a request whose body is body encoded as JSON.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// DecodeJSON decodes a recorder body into a generic map.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode response (status %d): %v", rec.Code, err)
	}
	return m
}
