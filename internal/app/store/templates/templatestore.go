// Package templatestore persists report templates.
//
// A template is either global to its organization or bound to exactly one
// doctor. Titles are unique (case-insensitively) per organization, scope
// and doctor among active templates; inactive templates keep their titles
// without blocking reuse.
package templatestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateTemplateTitle = errors.New("a template with this title already exists")
	ErrTitleRequired          = errors.New("template title is required")
	ErrBadScope               = errors.New("template scope must be global or doctor_specific")
	ErrDoctorRequired         = errors.New("doctor_specific templates need an assigned doctor")
	ErrOrgRequired            = errors.New("template organization is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("html_templates")}
}

// prepare normalizes t in place and enforces the scope rule.
func prepare(t *models.HTMLTemplate) error {
	t.Title = normalize.Name(t.Title)
	if t.Title == "" {
		return ErrTitleRequired
	}
	t.TitleCI = text.Fold(t.Title)
	t.Category = normalize.Name(t.Category)
	t.OrganizationIdentifier = normalize.Identifier(t.OrganizationIdentifier)
	if t.OrganizationID.IsZero() || t.OrganizationIdentifier == "" {
		return ErrOrgRequired
	}

	if t.TemplateScope == "" {
		t.TemplateScope = models.TemplateScopeGlobal
	}
	switch t.TemplateScope {
	case models.TemplateScopeGlobal:
		t.AssignedDoctor = nil
	case models.TemplateScopeDoctorSpecific:
		if t.AssignedDoctor == nil || t.AssignedDoctor.IsZero() {
			return ErrDoctorRequired
		}
	default:
		return ErrBadScope
	}

	t.HTMLContent = htmlsanitize.Prepare(t.HTMLContent)
	return nil
}

// Save inserts t when it has no ID, or overwrites the stored template with
// the same ID inside t's organization. New templates start active; Save
// never changes an existing template's active flag.
func (s *Store) Save(ctx context.Context, t models.HTMLTemplate) (models.HTMLTemplate, error) {
	if err := prepare(&t); err != nil {
		return models.HTMLTemplate{}, err
	}
	now := time.Now().UTC()
	t.UpdatedAt = now

	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
		t.IsActive = true
		t.CreatedAt = now
		if _, err := s.c.InsertOne(ctx, t); err != nil {
			if wafflemongo.IsDup(err) {
				return models.HTMLTemplate{}, ErrDuplicateTemplateTitle
			}
			return models.HTMLTemplate{}, err
		}
		return t, nil
	}

	update := bson.M{"$set": bson.M{
		"title":           t.Title,
		"title_ci":        t.TitleCI,
		"category":        t.Category,
		"html_content":    t.HTMLContent,
		"template_scope":  t.TemplateScope,
		"assigned_doctor": t.AssignedDoctor,
		"updated_at":      now,
	}}
	var saved models.HTMLTemplate
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": t.ID, "organization_identifier": t.OrganizationIdentifier},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.HTMLTemplate{}, ErrDuplicateTemplateTitle
		}
		return models.HTMLTemplate{}, err
	}
	return saved, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID, orgIdentifier string) (models.HTMLTemplate, error) {
	var t models.HTMLTemplate
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_identifier": orgIdentifier}).Decode(&t); err != nil {
		return models.HTMLTemplate{}, err
	}
	return t, nil
}

// ListFilter narrows List.
//
// Doctor, when set, limits results to global templates plus the ones bound
// to that doctor.
type ListFilter struct {
	OrganizationIdentifier string
	Doctor                 *primitive.ObjectID
	Category               string
}

// List returns a tenant's active templates ordered by title.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.HTMLTemplate, error) {
	filter := bson.M{"organization_identifier": f.OrganizationIdentifier, "is_active": true}
	if f.Doctor != nil {
		filter["$or"] = []bson.M{
			{"template_scope": models.TemplateScopeGlobal},
			{"template_scope": models.TemplateScopeDoctorSpecific, "assigned_doctor": *f.Doctor},
		}
	}
	if c := normalize.Name(f.Category); c != "" {
		filter["category"] = c
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.HTMLTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate hides a template from List and frees its title.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID, orgIdentifier string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "organization_identifier": orgIdentifier},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
