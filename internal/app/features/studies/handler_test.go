package studies_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/studies"
	"github.com/dalemusser/radhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/tokens"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	"github.com/dalemusser/radhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db     *mongo.Database
	fx     *testutil.Fixtures
	codec  *tokens.Codec
	router chi.Router
	org    models.Organization
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	codec := testutil.NewCodec(t)

	h := studies.NewHandler(db,
		auditlog.New(audit.New(db), logger, auditlog.Config{}),
		apierrors.NewErrorLogger(logger, false),
		logger,
	)
	guard := auth.NewGuard(codec, userstore.New(db), tenant.NewResolver(organizationstore.New(db)), "auth_token", logger)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	return &env{db: db, fx: fx, codec: codec, router: studies.Routes(h, guard), org: fx.CreateOrganization(ctx, "acme")}
}

func (e *env) user(t *testing.T, email, role string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	return e.fx.CreateUser(ctx, email, role, &e.org)
}

func (e *env) study(t *testing.T, status workflow.Status) models.DicomStudy {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	return e.fx.CreateStudy(ctx, e.org, status)
}

func (e *env) as(t *testing.T, u models.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.JSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+testutil.IssueToken(t, e.codec, u))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) status(t *testing.T, id string) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var st models.DicomStudy
	if err := e.db.Collection("dicom_studies").FindOne(ctx, bson.M{"_id": mustOID(t, id)}).Decode(&st); err != nil {
		t.Fatalf("load study: %v", err)
	}
	return st.WorkflowStatus
}

func TestListAndCounts(t *testing.T) {
	e := newEnv(t)
	viewer := e.user(t, "view@acme.test", roles.DashboardViewer)
	e.study(t, workflow.NewStudyReceived)
	e.study(t, workflow.PendingAssignment)
	e.study(t, workflow.ReportDrafted)
	e.study(t, workflow.Archived)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateOrganization(ctx, "other")
	e.fx.CreateStudy(ctx, other, workflow.NewStudyReceived)

	rec := e.as(t, viewer, http.MethodGet, "/counts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("counts status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := testutil.DecodeJSON(t, rec)
	counts := body["counts"].(map[string]any)
	want := map[string]float64{"pending": 2, "inprogress": 1, "completed": 1}
	for b, n := range want {
		if counts[b] != n {
			t.Errorf("counts[%s] = %v, want %v", b, counts[b], n)
		}
	}
	if body["total"] != float64(4) {
		t.Errorf("total = %v, want 4", body["total"])
	}

	tests := []struct {
		query  string
		status int
		n      int
	}{
		{"", http.StatusOK, 4},
		{"?bucket=pending", http.StatusOK, 2},
		{"?bucket=completed", http.StatusOK, 1},
		{"?bucket=nope", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run("list"+tt.query, func(t *testing.T) {
			rec := e.as(t, viewer, http.MethodGet, "/"+tt.query, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			data, _ := testutil.DecodeJSON(t, rec)["data"].([]any)
			if len(data) != tt.n {
				t.Errorf("len(data) = %d, want %d", len(data), tt.n)
			}
		})
	}

	t.Run("keyset pages", func(t *testing.T) {
		first := testutil.DecodeJSON(t, e.as(t, viewer, http.MethodGet, "/?limit=3", nil))
		if data, _ := first["data"].([]any); len(data) != 3 {
			t.Fatalf("first page len = %d, want 3", len(data))
		}
		next, _ := first["nextCursor"].(string)
		if next == "" {
			t.Fatal("expected a next cursor on the first page")
		}

		second := testutil.DecodeJSON(t, e.as(t, viewer, http.MethodGet, "/?limit=3&after="+next, nil))
		if data, _ := second["data"].([]any); len(data) != 1 {
			t.Errorf("second page len = %d, want 1", len(data))
		}
		if c, _ := second["nextCursor"].(string); c != "" {
			t.Errorf("last page cursor = %q, want empty", c)
		}

		if rec := e.as(t, viewer, http.MethodGet, "/?after=bogus", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("bad cursor status = %d, want 400", rec.Code)
		}
	})
}

func TestAssign(t *testing.T) {
	e := newEnv(t)
	assignor := e.user(t, "assign@acme.test", roles.Assignor)
	rad := e.user(t, "rad@acme.test", roles.Radiologist)
	typist := e.user(t, "typist@acme.test", roles.Typist)

	st := e.study(t, workflow.PendingAssignment)
	archived := e.study(t, workflow.Archived)

	tests := []struct {
		name   string
		actor  models.User
		study  models.DicomStudy
		body   map[string]any
		status int
	}{
		{"assignee cannot report", assignor, st, map[string]any{"assignedTo": typist.ID.Hex()}, http.StatusBadRequest},
		{"bad priority", assignor, st, map[string]any{"assignedTo": rad.ID.Hex(), "priority": "whenever"}, http.StatusBadRequest},
		{"not an assigner", rad, st, map[string]any{"assignedTo": rad.ID.Hex()}, http.StatusForbidden},
		{"terminal study", assignor, archived, map[string]any{"assignedTo": rad.ID.Hex()}, http.StatusConflict},
		{"assign", assignor, st, map[string]any{"assignedTo": rad.ID.Hex(), "priority": "urgent"}, http.StatusOK},
		{"already assigned", assignor, st, map[string]any{"assignedTo": rad.ID.Hex()}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.as(t, tt.actor, http.MethodPost, "/"+tt.study.ID.Hex()+"/assign", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := studystore.New(e.db).GetByID(ctx, st.ID, e.org.Identifier)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.WorkflowStatus != string(workflow.AssignedToDoctor) {
		t.Errorf("status = %s, want assigned_to_doctor", got.WorkflowStatus)
	}
	if got.Assignment.AssignedTo == nil || *got.Assignment.AssignedTo != rad.ID || got.Assignment.Priority != "urgent" {
		t.Errorf("assignment = %+v", got.Assignment)
	}
	if n, _ := e.db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventStudyAssigned}); n != 1 {
		t.Errorf("study_assigned events = %d, want 1", n)
	}
}

func TestStatus(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin@acme.test", roles.Admin)
	rad := e.user(t, "rad@acme.test", roles.Radiologist)
	typist := e.user(t, "typist@acme.test", roles.Typist)

	assigned := e.study(t, workflow.AssignedToDoctor)
	fresh := e.study(t, workflow.NewStudyReceived)
	moved := e.study(t, workflow.PendingAssignment)

	tests := []struct {
		name   string
		actor  models.User
		study  models.DicomStudy
		body   map[string]any
		status int
	}{
		{"missing status", rad, assigned, map[string]any{}, http.StatusBadRequest},
		{"unknown status", rad, assigned, map[string]any{"status": "teleported"}, http.StatusBadRequest},
		{"role not allowed", typist, assigned, map[string]any{"status": "assignment_accepted"}, http.StatusForbidden},
		{"illegal edge", admin, fresh, map[string]any{"status": "report_finalized"}, http.StatusConflict},
		{"stale expectation", admin, moved, map[string]any{"status": "metadata_extracted", "expectedStatus": "new_study_received"}, http.StatusConflict},
		{"accept", rad, assigned, map[string]any{"status": "assignment_accepted", "note": "on it"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.as(t, tt.actor, http.MethodPost, "/"+tt.study.ID.Hex()+"/status", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if got := e.status(t, assigned.ID.Hex()); got != string(workflow.AssignmentAccepted) {
		t.Errorf("accepted study status = %s", got)
	}
	if got := e.status(t, moved.ID.Hex()); got != string(workflow.PendingAssignment) {
		t.Errorf("stale write changed status to %s", got)
	}

	rec := e.as(t, rad, http.MethodGet, "/"+assigned.ID.Hex(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	study := testutil.DecodeJSON(t, rec)["study"].(map[string]any)
	history, _ := study["history"].([]any)
	if len(history) != 1 {
		t.Fatalf("history = %v, want one entry", history)
	}
	if h := history[0].(map[string]any); h["from"] != "assigned_to_doctor" || h["note"] != "on it" {
		t.Errorf("history entry = %v", h)
	}
}

func TestNotes(t *testing.T) {
	e := newEnv(t)
	rad := e.user(t, "rad@acme.test", roles.Radiologist)
	billing := e.user(t, "billing@acme.test", roles.Billing)
	st := e.study(t, workflow.AssignmentAccepted)
	base := "/" + st.ID.Hex() + "/notes"

	rec := e.as(t, rad, http.MethodPost, base, map[string]any{"text": "Contrast artefact", "visibility": "medical"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %s", rec.Code, rec.Body.String())
	}
	medicalID := testutil.DecodeJSON(t, rec)["note"].(map[string]any)["id"].(string)

	if rec := e.as(t, billing, http.MethodPost, base, map[string]any{"text": "Invoice sent"}); rec.Code != http.StatusCreated {
		t.Fatalf("public note status = %d", rec.Code)
	}
	if rec := e.as(t, billing, http.MethodPost, base, map[string]any{"text": "   "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank note status = %d, want 400", rec.Code)
	}
	if rec := e.as(t, billing, http.MethodPost, base, map[string]any{"text": "x", "visibility": "secret"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad visibility status = %d, want 400", rec.Code)
	}

	count := func(u models.User) int {
		rec := e.as(t, u, http.MethodGet, base, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d", rec.Code)
		}
		data, _ := testutil.DecodeJSON(t, rec)["data"].([]any)
		return len(data)
	}
	if n := count(rad); n != 2 {
		t.Errorf("radiologist sees %d notes, want 2", n)
	}
	if n := count(billing); n != 1 {
		t.Errorf("billing sees %d notes, want 1", n)
	}

	reply := base + "/" + medicalID + "/replies"
	if rec := e.as(t, billing, http.MethodPost, reply, map[string]any{"text": "?"}); rec.Code != http.StatusForbidden {
		t.Errorf("billing reply status = %d, want 403", rec.Code)
	}
	rec = e.as(t, rad, http.MethodPost, reply, map[string]any{"text": "Repeat scan advised"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reply status = %d, body = %s", rec.Code, rec.Body.String())
	}
	replies := testutil.DecodeJSON(t, rec)["note"].(map[string]any)["replies"].([]any)
	if len(replies) != 1 {
		t.Errorf("replies = %d, want 1", len(replies))
	}

	other := e.study(t, workflow.AssignmentAccepted)
	crossed := "/" + other.ID.Hex() + "/notes/" + medicalID + "/replies"
	if rec := e.as(t, rad, http.MethodPost, crossed, map[string]any{"text": "wrong study"}); rec.Code != http.StatusNotFound {
		t.Errorf("reply through another study status = %d, want 404", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := studystore.New(e.db).GetByID(ctx, st.ID, e.org.Identifier)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.NotesCount != 2 {
		t.Errorf("notes_count = %d, want 2", got.NotesCount)
	}
}

func mustOID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatalf("bad id %q: %v", hex, err)
	}
	return id
}
