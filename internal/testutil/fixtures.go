package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every fixture user.
const FixturePassword = "correct horse battery"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateOrganization creates an active organization with no subscription
// end date.
func (f *Fixtures) CreateOrganization(ctx context.Context, identifier string) models.Organization {
	f.t.Helper()
	return f.CreateOrganizationWith(ctx, models.Organization{
		Name:       "Org " + identifier,
		Identifier: identifier,
	})
}

// CreateOrganizationWith inserts org after filling the ID, folded name,
// default status and timestamps.
func (f *Fixtures) CreateOrganizationWith(ctx context.Context, org models.Organization) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.Identifier = normalize.Identifier(org.Identifier)
	if org.Name == "" {
		org.Name = "Org " + org.Identifier
	}
	org.NameCI = text.Fold(org.Name)
	if org.DisplayName == "" {
		org.DisplayName = org.Name
	}
	if org.Status == "" {
		org.Status = models.OrgStatusActive
	}
	if org.Subscription.Plan == "" {
		org.Subscription.Plan = "basic"
	}
	org.CreatedAt = now
	org.UpdatedAt = now

	f.insert(ctx, "organizations", org)
	return org
}

// ExpireSubscription moves org's subscription end date to at.
func (f *Fixtures) ExpireSubscription(ctx context.Context, org models.Organization, at time.Time) {
	f.t.Helper()
	_, err := f.db.Collection("organizations").UpdateByID(ctx, org.ID,
		bson.M{"$set": bson.M{"subscription.subscription_end_date": at.UTC()}})
	if err != nil {
		f.t.Fatalf("failed to expire subscription: %v", err)
	}
}

// CreateUser creates an active user whose password is FixturePassword.
// org may be nil only for super_admin.
func (f *Fixtures) CreateUser(ctx context.Context, email, role string, org *models.Organization) models.User {
	f.t.Helper()
	return f.CreateUserWith(ctx, models.User{Email: email, Role: role, IsActive: true}, org)
}

// CreateUserWith inserts u in org, filling identity fields and hashing
// FixturePassword at bcrypt's minimum cost.
func (f *Fixtures) CreateUserWith(ctx context.Context, u models.User, org *models.Organization) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	if u.FullName == "" {
		u.FullName, _, _ = strings.Cut(u.Email, "@")
	}
	u.FullNameCI = text.Fold(u.FullName)
	u.PasswordHash = string(hash)
	if org != nil {
		id := org.ID
		u.OrganizationID = &id
		u.OrganizationIdentifier = org.Identifier
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	f.insert(ctx, "users", u)
	return u
}

// CreateSuperAdmin creates an active super_admin with no organization.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, email, roles.SuperAdmin, nil)
}

// CreateLab creates an active lab in org.
func (f *Fixtures) CreateLab(ctx context.Context, org models.Organization, identifier string) models.Lab {
	f.t.Helper()

	now := time.Now().UTC()
	lab := models.Lab{
		ID:                     primitive.NewObjectID(),
		Name:                   "Lab " + identifier,
		NameCI:                 text.Fold("Lab " + identifier),
		Identifier:             normalize.Identifier(identifier),
		OrganizationID:         org.ID,
		OrganizationIdentifier: org.Identifier,
		IsActive:               true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	f.insert(ctx, "labs", lab)
	return lab
}

// CreateDoctor creates an active doctor profile for u.
func (f *Fixtures) CreateDoctor(ctx context.Context, u models.User) models.Doctor {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Doctor{
		ID:                     primitive.NewObjectID(),
		UserID:                 u.ID,
		OrganizationIdentifier: u.OrganizationIdentifier,
		Specialization:         "Radiology",
		LicenseNumber:          "LIC-" + u.ID.Hex()[18:],
		IsActiveProfile:        true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if u.OrganizationID != nil {
		d.OrganizationID = *u.OrganizationID
	}
	f.insert(ctx, "doctors", d)
	return d
}

// CreateStudy creates a study in org with the given workflow status.
func (f *Fixtures) CreateStudy(ctx context.Context, org models.Organization, status workflow.Status) models.DicomStudy {
	f.t.Helper()

	now := time.Now().UTC()
	bucket, _ := status.Bucket()
	s := models.DicomStudy{
		ID:                     primitive.NewObjectID(),
		StudyInstanceUID:       "1.2.840." + primitive.NewObjectID().Hex(),
		Modality:               "CT",
		OrganizationID:         org.ID,
		OrganizationIdentifier: org.Identifier,
		Patient:                models.PatientRef{PatientID: "P-1", Name: "Test Patient"},
		WorkflowStatus:         string(status),
		CategoryTracking:       models.CategoryTracking{Current: string(bucket), LastUpdatedAt: &now},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	f.insert(ctx, "dicom_studies", s)
	return s
}
