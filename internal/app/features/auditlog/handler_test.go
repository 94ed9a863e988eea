package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/radhub/internal/app/features/auditlog"
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router chi.Router
	admin  string
	radio  string
	root   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	codec := testutil.NewCodec(t)
	res := tenant.NewResolver(organizationstore.New(db))
	guard := auth.NewGuard(codec, userstore.New(db), res, "", logger)
	h := auditlog.NewHandler(db, apierrors.NewErrorLogger(logger, false), logger)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	a := fx.CreateOrganization(ctx, "AAAA")
	b := fx.CreateOrganization(ctx, "BBBB")
	admin := fx.CreateUser(ctx, "admin@a.test", roles.Admin, &a)
	radio := fx.CreateUser(ctx, "r@a.test", roles.Radiologist, &a)
	root := fx.CreateSuperAdmin(ctx, "root@radhub.test")

	store := audit.New(db)
	now := time.Now().UTC()
	events := []audit.Event{
		{Timestamp: now, OrganizationIdentifier: "AAAA", Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &admin.ID, Success: true},
		{Timestamp: now, OrganizationIdentifier: "AAAA", Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &radio.ID, FailureReason: "wrong password"},
		{Timestamp: now, OrganizationIdentifier: "AAAA", Category: audit.CategoryAdmin, EventType: audit.EventUserCreated, ActorID: &admin.ID, UserID: &radio.ID, Success: true},
		{Timestamp: now, OrganizationIdentifier: b.Identifier, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("seed audit event: %v", err)
		}
	}

	return &env{
		router: auditlog.Routes(h, guard),
		admin:  testutil.IssueToken(t, codec, admin),
		radio:  testutil.IssueToken(t, codec, radio),
		root:   testutil.IssueToken(t, codec, root),
	}
}

func (e *env) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleList(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		total  float64
	}{
		{"admin sees own org", "/", e.admin, http.StatusOK, 3},
		{"category filter", "/?category=admin", e.admin, http.StatusOK, 1},
		{"event type filter", "/?event_type=login_success", e.admin, http.StatusOK, 1},
		{"super_admin without org sees all", "/", e.root, http.StatusOK, 4},
		{"unknown category", "/?category=nope", e.admin, http.StatusBadRequest, 0},
		{"bad date", "/?start_date=yesterday", e.admin, http.StatusBadRequest, 0},
		{"radiologist forbidden", "/", e.radio, http.StatusForbidden, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.get(t, tt.path, tt.token)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			body := testutil.DecodeJSON(t, rec)
			if body["total"] != tt.total {
				t.Errorf("total = %v, want %v", body["total"], tt.total)
			}
		})
	}
}

func TestHandleList_ResolvesNames(t *testing.T) {
	e := newEnv(t)

	rec := e.get(t, "/?category=admin", e.admin)
	data, _ := testutil.DecodeJSON(t, rec)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("len(data) = %d", len(data))
	}
	item, _ := data[0].(map[string]any)
	if item["actorName"] != "admin" || item["targetName"] != "r" {
		t.Errorf("item = %v", item)
	}
}

func TestHandleFailedLogins(t *testing.T) {
	e := newEnv(t)

	rec := e.get(t, "/failed-logins?hours=1", e.admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, _ := testutil.DecodeJSON(t, rec)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("len(data) = %d, want 1", len(data))
	}

	if rec := e.get(t, "/failed-logins?hours=0", e.admin); rec.Code != http.StatusBadRequest {
		t.Errorf("hours=0: status = %d, want 400", rec.Code)
	}
}
