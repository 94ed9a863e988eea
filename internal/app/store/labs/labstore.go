package labstore

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
	ErrDuplicateIdentifier = errors.New("a lab with this identifier already exists in the organization")
	ErrInvalid             = errors.New("lab name, identifier and organization are required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("labs")}
}

// Create inserts an active lab.
func (s *Store) Create(ctx context.Context, lab models.Lab) (models.Lab, error) {
	lab.Name = normalize.Name(lab.Name)
	lab.Identifier = normalize.Identifier(lab.Identifier)
	lab.OrganizationIdentifier = normalize.Identifier(lab.OrganizationIdentifier)
	if lab.Name == "" || lab.Identifier == "" || lab.OrganizationID.IsZero() || lab.OrganizationIdentifier == "" {
		return models.Lab{}, ErrInvalid
	}

	now := time.Now().UTC()
	lab.ID = primitive.NewObjectID()
	lab.NameCI = text.Fold(lab.Name)
	lab.IsActive = true
	lab.CreatedAt = now
	lab.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, lab); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Lab{}, ErrDuplicateIdentifier
		}
		return models.Lab{}, err
	}
	return lab, nil
}

// GetByID returns mongo.ErrNoDocuments when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lab, error) {
	var lab models.Lab
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&lab); err != nil {
		return models.Lab{}, err
	}
	return lab, nil
}

// GetByIdentifier finds a lab by identifier inside a tenant. Returns
// mongo.ErrNoDocuments when absent.
func (s *Store) GetByIdentifier(ctx context.Context, orgIdentifier, identifier string) (models.Lab, error) {
	var lab models.Lab
	filter := bson.M{
		"organization_identifier": normalize.Identifier(orgIdentifier),
		"identifier":              normalize.Identifier(identifier),
	}
	if err := s.c.FindOne(ctx, filter).Decode(&lab); err != nil {
		return models.Lab{}, err
	}
	return lab, nil
}

// ListByOrganization returns a tenant's labs by name.
func (s *Store) ListByOrganization(ctx context.Context, orgIdentifier string, activeOnly bool) ([]models.Lab, error) {
	filter := bson.M{"organization_identifier": orgIdentifier}
	if activeOnly {
		filter["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var labs []models.Lab
	if err := cur.All(ctx, &labs); err != nil {
		return nil, err
	}
	return labs, nil
}

// DeactivateByOrganization disables every lab of an organization.
func (s *Store) DeactivateByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"organization": orgID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
