package doctorstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/radhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateProfile = errors.New("this user already has a doctor profile")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("doctors")}
}

// Create inserts an active doctor profile.
func (s *Store) Create(ctx context.Context, d models.Doctor) (models.Doctor, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.IsActiveProfile = true
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Doctor{}, ErrDuplicateProfile
		}
		return models.Doctor{}, err
	}
	return d, nil
}

// GetByUserID returns the profile of a doctor account, or
// mongo.ErrNoDocuments.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Doctor, error) {
	var d models.Doctor
	if err := s.c.FindOne(ctx, bson.M{"user_account": userID}).Decode(&d); err != nil {
		return models.Doctor{}, err
	}
	return d, nil
}

// DeactivateByOrganization disables every profile of an organization.
func (s *Store) DeactivateByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"organization": orgID, "is_active_profile": true},
		bson.M{"$set": bson.M{"is_active_profile": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
