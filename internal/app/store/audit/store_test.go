package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/radhub/internal/app/store/audit"
	"github.com/dalemusser/radhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	userID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
		Details:   map[string]string{"provider": "password"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if ev.Timestamp.Before(before) {
		t.Errorf("Timestamp %v not set to now", ev.Timestamp)
	}
	if ev.Details["provider"] != "password" {
		t.Errorf("Details = %v", ev.Details)
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := []audit.Event{
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: base},
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryAdmin, EventType: audit.EventUserCreated, Success: true, Timestamp: base.Add(time.Hour)},
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryWorkflow, EventType: audit.EventStatusChanged, Success: true, Timestamp: base.Add(2 * time.Hour)},
		{OrganizationIdentifier: "WXYZ", Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, Timestamp: base.Add(3 * time.Hour)},
	}
	for _, ev := range seed {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	start, end := base.Add(30*time.Minute), base.Add(150*time.Minute)

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"by organization", audit.QueryFilter{OrganizationIdentifier: "ABCD"}, 3},
		{"by category", audit.QueryFilter{Category: audit.CategoryAuth}, 2},
		{"by event type", audit.QueryFilter{EventType: audit.EventStatusChanged}, 1},
		{"by time range", audit.QueryFilter{StartTime: &start, EndTime: &end}, 2},
		{"limit", audit.QueryFilter{Limit: 1}, 1},
		{"offset", audit.QueryFilter{Offset: 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("Query() returned %d events, want %d", len(events), tt.want)
			}
		})
	}

	newest, err := store.Query(ctx, audit.QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if newest[0].EventType != audit.EventLoginFailedWrongPassword {
		t.Errorf("newest event = %q", newest[0].EventType)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{OrganizationIdentifier: "ABCD"})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountByFilter = %d, want 3", n)
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	events := []audit.Event{
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, Timestamp: now},
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryAuth, EventType: audit.EventLoginFailedOrganization, Timestamp: now},
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: now},
		{OrganizationIdentifier: "ABCD", Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserDisabled, Timestamp: now.Add(-2 * time.Hour)},
		{OrganizationIdentifier: "WXYZ", Category: audit.CategoryAuth, EventType: audit.EventLabLoginFailed, Timestamp: now},
	}
	for _, ev := range events {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.GetFailedLogins(ctx, "ABCD", now.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("GetFailedLogins(ABCD) = %d, want 2", len(got))
	}

	all, err := store.GetFailedLogins(ctx, "", now.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("GetFailedLogins(all) = %d, want 3", len(all))
	}
}
