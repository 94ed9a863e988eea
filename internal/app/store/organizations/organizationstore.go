// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

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
	ErrDuplicateIdentifier = errors.New("an organization with this identifier already exists")
	ErrNameRequired        = errors.New("organization name is required")
	ErrBadStatus           = errors.New(`status must be "active"|"inactive"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts org. The caller supplies the identifier; it is never
// rewritten afterwards.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	org.Name = normalize.Name(org.Name)
	if org.Name == "" {
		return models.Organization{}, ErrNameRequired
	}
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	org.Identifier = normalize.Identifier(org.Identifier)
	if org.DisplayName == "" {
		org.DisplayName = org.Name
	}
	if org.Status == "" {
		org.Status = models.OrgStatusActive
	}
	org.CreatedAt = now
	org.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateIdentifier
		}
		return models.Organization{}, err
	}
	return org, nil
}

// Delete removes an organization by id. It exists to undo a create whose
// follow-up writes failed; there is no API to delete an organization.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// GetByID returns mongo.ErrNoDocuments when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, bson.M{"identifier": normalize.Identifier(identifier)}).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// IdentifierExists reports whether any organization, active or not, holds
// identifier.
func (s *Store) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"identifier": normalize.Identifier(identifier)},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListActive returns active organizations ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Organization, error) {
	return s.find(ctx, bson.M{"status": models.OrgStatusActive})
}

// List returns every organization ordered by name, optionally filtered by
// status.
func (s *Store) List(ctx context.Context, status string) ([]models.Organization, error) {
	filter := bson.M{}
	if status = normalize.Status(status); status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// SetStatus updates status and reports whether the organization exists.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (bool, error) {
	status = normalize.Status(status)
	if status != models.OrgStatusActive && status != models.OrgStatusInactive {
		return false, ErrBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
