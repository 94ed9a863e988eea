package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrBadRole        = errors.New("role is not a known role")
	ErrOrgNeeded      = errors.New("users other than super_admin must belong to an organization")
	ErrEmailRequired  = errors.New("email is required")
	ErrEmailInvalid   = errors.New("email address is not valid")
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDInOrg loads a user by id only if it still carries orgIdentifier.
func (s *Store) GetByIDInOrg(ctx context.Context, id primitive.ObjectID, orgIdentifier string) (*models.User, error) {
	var u models.User
	filter := bson.M{"_id": id, "organization_identifier": orgIdentifier}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// NewUser is the input to Create.
type NewUser struct {
	models.User
	Password string
	// Temporary marks admin-issued credentials. The plaintext is kept in
	// temp_password so the issuing admin can read it back.
	Temporary bool
}

// Create validates, hashes the password and inserts a user. IsActive is
// taken from the input as given.
func (s *Store) Create(ctx context.Context, nu NewUser, cost int) (models.User, error) {
	u := nu.User
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.OrganizationIdentifier = normalize.Identifier(u.OrganizationIdentifier)

	if u.Email == "" {
		return models.User{}, ErrEmailRequired
	}
	if !validate.SimpleEmailValid(u.Email) {
		return models.User{}, ErrEmailInvalid
	}
	if !roles.IsValid(u.Role) {
		return models.User{}, ErrBadRole
	}
	if u.Role != roles.SuperAdmin && (u.OrganizationID == nil || u.OrganizationIdentifier == "") {
		return models.User{}, ErrOrgNeeded
	}
	u.AccountRoles = roles.NewSet(u.AccountRoles...).Slice()

	hash, err := passwords.Hash(nu.Password, cost)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash
	u.TempPassword = ""
	if nu.Temporary {
		u.TempPassword = nu.Password
	}

	now := time.Now().UTC()
	u.IsLoggedIn = false
	u.LastLoginAt = nil
	u.LoginCount = 0
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Delete removes a user by id. Deleting a missing user is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// RecordLogin marks the user logged in and increments login_count
// atomically, returning the updated record.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"is_logged_in":  true,
			"last_login_at": at.UTC(),
			"updated_at":    at.UTC(),
		},
		"$inc": bson.M{"login_count": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetLoggedOut clears the login flag.
func (s *Store) SetLoggedOut(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_logged_in": false,
		"updated_at":   time.Now().UTC(),
	}})
	return err
}

// SetActive flips is_active for a user inside orgIdentifier. An empty
// orgIdentifier matches any tenant (super_admin scope). It reports whether
// a user matched.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, orgIdentifier string, active bool) (bool, error) {
	filter := bson.M{"_id": id}
	if orgIdentifier != "" {
		filter["organization_identifier"] = orgIdentifier
	}
	set := bson.M{"is_active": active, "updated_at": time.Now().UTC()}
	if !active {
		set["is_logged_in"] = false
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Promote makes an existing user an active super_admin. A non-empty
// passwordHash replaces the stored one.
func (s *Store) Promote(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	set := bson.M{
		"role":       roles.SuperAdmin,
		"is_active":  true,
		"updated_at": time.Now().UTC(),
	}
	if passwordHash != "" {
		set["password"] = passwordHash
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// DeactivateByOrganization disables every user of an organization and
// returns how many changed.
func (s *Store) DeactivateByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"organization": orgID, "is_active": true},
		bson.M{"$set": bson.M{
			"is_active":    false,
			"is_logged_in": false,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ClearStaleLoginFlags clears is_logged_in for users whose last login is
// before cutoff.
func (s *Store) ClearStaleLoginFlags(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"is_logged_in": true, "last_login_at": bson.M{"$lt": cutoff.UTC()}},
		bson.M{"$set": bson.M{"is_logged_in": false}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListByOrganization returns the users of a tenant ordered by name.
func (s *Store) ListByOrganization(ctx context.Context, orgIdentifier string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_identifier": orgIdentifier}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByOrganization returns the number of users in an organization.
func (s *Store) CountByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"organization": orgID})
}

// CountByOrganizations returns user counts keyed by organization id.
// Organizations without users are absent from the map.
func (s *Store) CountByOrganizations(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{"_id": "$organization", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// NamesByIDs returns full names keyed by user id. Unknown ids are absent.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.FullName
	}
	return out, cur.Err()
}
