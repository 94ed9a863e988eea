package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/radhub/internal/app/store/audit"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "ABCD", "password")
	logger.Logout(ctx, req, primitive.NewObjectID(), "")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		wantDB  int
		wantLog int
	}{
		{"all", auditlog.All, 1, 1},
		{"empty means all", "", 1, 1},
		{"db", auditlog.DB, 1, 0},
		{"log", auditlog.Log, 0, 1},
		{"off", auditlog.Off, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting})
			userID := primitive.NewObjectID()
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/api/auth/login", nil), userID, "ABCD", "password")

			n, err := store.CountByFilter(ctx, audit.QueryFilter{UserID: &userID})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if int(n) != tt.wantDB {
				t.Errorf("stored %d events, want %d", n, tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tt.wantLog {
				t.Errorf("logged %d events, want %d", got, tt.wantLog)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:     auditlog.Off,
		Admin:    auditlog.DB,
		Workflow: auditlog.DB,
	})
	req := httptest.NewRequest("GET", "/", nil)
	actor, target, study := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	logger.LoginSuccess(ctx, req, actor, "ABCD", "password")
	logger.UserCreated(ctx, req, actor, target, "ABCD", "radiologist")
	logger.StatusChanged(ctx, req, actor, study, "ABCD", "pending_assignment", "assigned_to_doctor")

	tests := []struct {
		category string
		want     int64
	}{
		{audit.CategoryAuth, 0},
		{audit.CategoryAdmin, 1},
		{audit.CategoryWorkflow, 1},
	}
	for _, tt := range tests {
		n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: tt.category})
		if err != nil {
			t.Fatalf("CountByFilter failed: %v", err)
		}
		if n != tt.want {
			t.Errorf("%s events = %d, want %d", tt.category, n, tt.want)
		}
	}
}

func TestLogger_RecordsClientIPAndDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	req := httptest.NewRequest("POST", "/api/auth/switch-organization", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195, 10.0.0.1")
	req.RemoteAddr = "127.0.0.1:12345"

	userID := primitive.NewObjectID()
	logger.OrganizationSwitched(ctx, req, userID, "ABCD", "WXYZ")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.IP != "203.0.113.195" {
		t.Errorf("IP: got %q, want %q", ev.IP, "203.0.113.195")
	}
	if ev.OrganizationIdentifier != "WXYZ" || ev.Details["from"] != "ABCD" {
		t.Errorf("event = %+v", ev)
	}
}

func TestLogger_FailuresAreWarnings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: auditlog.Log})
	logger.LoginFailedUserNotFound(ctx, httptest.NewRequest("POST", "/", nil), "nobody@example.com")

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}
