package ingest_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/ingest"
	"github.com/dalemusser/radhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	"github.com/dalemusser/radhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const apiKey = "pacs-secret"

func newRouter(t *testing.T, key string) (*mongo.Database, *testutil.Fixtures, chi.Router) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := ingest.NewHandler(db, key,
		tenant.NewResolver(organizationstore.New(db)),
		auditlog.New(audit.New(db), logger, auditlog.Config{}),
		apierrors.NewErrorLogger(logger, false),
		logger,
	)
	return db, testutil.NewFixtures(t, db), ingest.Routes(h)
}

func send(router chi.Router, req *http.Request, key string) *httptest.ResponseRecorder {
	if key != "" {
		req.Header.Set(ingest.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAPIKey(t *testing.T) {
	_, _, router := newRouter(t, apiKey)
	body := map[string]any{"organizationIdentifier": "ACME", "studyInstanceUid": "1.2.3"}

	if rec := send(router, testutil.JSONRequest(t, http.MethodPost, "/studies", body), ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}
	if rec := send(router, testutil.JSONRequest(t, http.MethodPost, "/studies", body), "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", rec.Code)
	}

	_, _, off := newRouter(t, "")
	if rec := send(off, testutil.JSONRequest(t, http.MethodPost, "/studies", body), "anything"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d, want 503", rec.Code)
	}
}

func TestHandleStudy(t *testing.T) {
	db, fx, router := newRouter(t, apiKey)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "acme")
	lab := fx.CreateLab(ctx, org, "north")
	expired := fx.CreateOrganization(ctx, "old")
	fx.ExpireSubscription(ctx, expired, time.Now().Add(-time.Hour))

	post := func(body map[string]any) *httptest.ResponseRecorder {
		return send(router, testutil.JSONRequest(t, http.MethodPost, "/studies", body), apiKey)
	}

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"create", map[string]any{"organizationIdentifier": "acme", "labIdentifier": "north", "studyInstanceUid": "1.2.840.5", "modality": "ct", "patient": map[string]any{"patientId": "P-9", "name": "Jo"}}, http.StatusCreated},
		{"resend", map[string]any{"organizationIdentifier": "ACME", "studyInstanceUid": "1.2.840.5"}, http.StatusOK},
		{"missing uid", map[string]any{"organizationIdentifier": "acme"}, http.StatusBadRequest},
		{"unknown org", map[string]any{"organizationIdentifier": "nope", "studyInstanceUid": "1.2"}, http.StatusBadRequest},
		{"unknown lab", map[string]any{"organizationIdentifier": "acme", "labIdentifier": "south", "studyInstanceUid": "1.3"}, http.StatusBadRequest},
		{"expired org", map[string]any{"organizationIdentifier": "old", "studyInstanceUid": "1.4"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	var st models.DicomStudy
	if err := db.Collection("dicom_studies").FindOne(ctx, bson.M{"study_instance_uid": "1.2.840.5"}).Decode(&st); err != nil {
		t.Fatalf("load study: %v", err)
	}
	if st.WorkflowStatus != string(workflow.NewStudyReceived) || st.Modality != "CT" {
		t.Errorf("study = %+v", st)
	}
	if st.SourceLabID == nil || *st.SourceLabID != lab.ID {
		t.Errorf("source lab = %v, want %s", st.SourceLabID, lab.ID.Hex())
	}
	if st.CategoryTracking.Current != string(workflow.BucketPending) {
		t.Errorf("bucket = %q, want pending", st.CategoryTracking.Current)
	}
	if n, _ := db.Collection("dicom_studies").CountDocuments(ctx, bson.M{}); n != 1 {
		t.Errorf("studies = %d, want 1", n)
	}
	if n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventStudyIngested}); n != 1 {
		t.Errorf("study_ingested events = %d, want 1", n)
	}
}

func TestHandleBatch(t *testing.T) {
	db, fx, router := newRouter(t, apiKey)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateOrganization(ctx, "acme")

	batch := func(query, csv string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/studies/batch"+query, strings.NewReader(csv))
		req.Header.Set("Content-Type", "text/csv")
		return send(router, req, apiKey)
	}

	rec := batch("?organization=acme", "1.5.1\n1.5.x\n")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad manifest status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if n, _ := db.Collection("dicom_studies").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("a rejected manifest must not create studies, have %d", n)
	}

	if rec := batch("", "1.5.1\n"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing organization status = %d, want 400", rec.Code)
	}

	if rec := batch("?organization=acme", "1.5.3\n"); rec.Code != http.StatusOK {
		t.Fatalf("first batch status = %d, body = %s", rec.Code, rec.Body.String())
	}

	csv := "study_instance_uid,accession,modality\n1.5.1,A1,CT\n1.5.2,A2,MR\n1.5.3,A3,CT\n"
	rec = batch("?organization=acme", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := testutil.DecodeJSON(t, rec)
	if body["created"] != float64(2) || body["skipped"] != float64(1) {
		t.Errorf("body = %v, want created 2 skipped 1", body)
	}
}
