// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema at startup. Each ensure* function is
idempotent. Errors are aggregated so every problem is visible and startup
fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"organizations", ensureOrganizations},
		{"labs", ensureLabs},
		{"doctors", ensureDoctors},
		{"dicom_studies", ensureStudies},
		{"html_templates", ensureTemplates},
		{"study_notes", ensureNotes},
		{"login_records", ensureLoginRecords},
		{"audit_events", ensureAuditEvents},
	}

	var problems []string
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

type desired struct {
	model  mongo.IndexModel
	name   string
	unique *bool
	sig    string
}

func describe(m mongo.IndexModel) desired {
	d := desired{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique
	}
	return d
}

func (d desired) isUnique() bool { return d.unique != nil && *d.unique }

// create builds d and phrases duplicate-key failures so the operator can
// find the offending documents.
func create(ctx context.Context, coll *mongo.Collection, d desired) error {
	_, err := coll.Indexes().CreateOne(ctx, d.model)
	if err == nil {
		return nil
	}
	if isDuplicateKeyErr(err) && d.isUnique() {
		helper := ""
		if coll.Name() == "users" && strings.Contains(d.sig, "email:1") {
			helper = " (find them with " +
				`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])` + ")"
		}
		return fmt.Errorf("%s(%s): cannot create unique index, duplicates present%s", coll.Name(), d.name, helper)
	}
	return fmt.Errorf("%s(%s): %w", coll.Name(), d.name, err)
}

// replace drops the index named old and creates d in its place.
func replace(ctx context.Context, coll *mongo.Collection, old string, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		zap.L().Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", old),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %w", coll.Name(), d.name, err)
	}
	return create(ctx, coll, d)
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.isUnique()),
		}

		err := reconcile(ctx, coll, d)
		if err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			errs = append(errs, err.Error())
			continue
		}
		zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func reconcile(ctx context.Context, coll *mongo.Collection, d desired) error {
	if ex, ok := listIndexes(ctx, coll)[d.sig]; ok {
		switch {
		case !sameBoolPtr(d.unique, ex.Unique):
			// Options differ (e.g. upgrading to unique).
			return replace(ctx, coll, ex.Name, d)
		case d.name != "" && ex.Name != d.name:
			zap.L().Info("renaming index to align with desired name",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", d.name))
			return replace(ctx, coll, ex.Name, d)
		default:
			return nil
		}
	}

	err := create(ctx, coll, d)
	if err == nil || !isOptionsConflictErr(err) {
		return err
	}

	// Same keys appeared under another name between List and Create.
	ex, ok := listIndexes(ctx, coll)[d.sig]
	if !ok {
		return err
	}
	if sameBoolPtr(d.unique, ex.Unique) {
		return nil
	}
	return replace(ctx, coll, ex.Name, d)
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email is unique across every tenant.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Request guard lookup: id + tenant.
		{
			Keys:    bson.D{{Key: "_id", Value: 1}, {Key: "organization_identifier", Value: 1}},
			Options: options.Index().SetName("idx_users_id_orgident"),
		},
		// Per-tenant user lists and counts by role.
		{
			Keys: bson.D{
				{Key: "organization", Value: 1},
				{Key: "role", Value: 1},
				{Key: "is_active", Value: 1},
			},
			Options: options.Index().SetName("idx_users_org_role_active"),
		},
		// Login flag sweep.
		{
			Keys:    bson.D{{Key: "is_logged_in", Value: 1}, {Key: "last_login_at", Value: 1}},
			Options: options.Index().SetName("idx_users_loggedin_lastlogin"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organizations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identifier", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_identifier"),
		},
		// Filter by status, then name_ci sort
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_status_nameci__id"),
		},
	})
}

func ensureLabs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("labs"), []mongo.IndexModel{
		// Lab identifiers are unique inside a tenant.
		{
			Keys:    bson.D{{Key: "organization_identifier", Value: 1}, {Key: "identifier", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_labs_orgident_identifier"),
		},
		{
			Keys:    bson.D{{Key: "organization", Value: 1}, {Key: "is_active", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_labs_org_active_nameci"),
		},
	})
}

func ensureDoctors(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("doctors"), []mongo.IndexModel{
		// One profile per doctor account.
		{
			Keys:    bson.D{{Key: "user_account", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_doctors_user"),
		},
		{
			Keys:    bson.D{{Key: "organization", Value: 1}, {Key: "is_active_profile", Value: 1}},
			Options: options.Index().SetName("idx_doctors_org_active"),
		},
	})
}

func ensureStudies(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("dicom_studies"), []mongo.IndexModel{
		// The PACS may resend a study; ingest is idempotent per tenant.
		{
			Keys:    bson.D{{Key: "organization_identifier", Value: 1}, {Key: "study_instance_uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_studies_orgident_uid"),
		},
		// Dashboard bucket lists, newest first.
		{
			Keys: bson.D{
				{Key: "organization_identifier", Value: 1},
				{Key: "workflow_status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_studies_orgident_status_created"),
		},
		// Radiologist worklists.
		{
			Keys: bson.D{
				{Key: "organization_identifier", Value: 1},
				{Key: "assignment.assigned_to", Value: 1},
				{Key: "workflow_status", Value: 1},
			},
			Options: options.Index().SetName("idx_studies_orgident_assignee_status"),
		},
	})
}

func ensureTemplates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("html_templates"), []mongo.IndexModel{
		// Title unique per (tenant, scope, doctor) among active templates.
		{
			Keys: bson.D{
				{Key: "organization_identifier", Value: 1},
				{Key: "template_scope", Value: 1},
				{Key: "assigned_doctor", Value: 1},
				{Key: "title_ci", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}).
				SetName("uniq_templates_scope_doctor_titleci_active"),
		},
		{
			Keys:    bson.D{{Key: "organization_identifier", Value: 1}, {Key: "is_active", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetName("idx_templates_orgident_active_category"),
		},
	})
}

func ensureNotes(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("study_notes"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "study", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_notes_study_created"),
		},
	})
}

func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("login_records"), []mongo.IndexModel{
		// Per-user recent logins (latest-first)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_logins_user_created"),
		},
		// Per-tenant recent logins
		{
			Keys:    bson.D{{Key: "organization_identifier", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_logins_orgident_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_ts"),
		},
		{
			Keys:    bson.D{{Key: "organization_identifier", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_org_ts"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_ts"),
		},
	})
}
