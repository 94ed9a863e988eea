package loginstore

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/ratelimit"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom records a login by subject (user or lab) taken from r.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, subject primitive.ObjectID, orgIdentifier, provider string) error {
	return s.Create(ctx, models.LoginRecord{
		UserID:                 subject.Hex(),
		OrganizationIdentifier: orgIdentifier,
		IP:                     ratelimit.ClientIP(r),
		Provider:               provider,
	})
}

// RecentByUser returns up to limit records for a subject, newest first.
func (s *Store) RecentByUser(ctx context.Context, subject primitive.ObjectID, limit int64) ([]models.LoginRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": subject.Hex()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LoginRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
