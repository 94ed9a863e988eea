// Package notestore persists threaded notes on studies.
//
// Each note carries a visibility tier. Public notes are readable by every
// member of the tenant, medical notes by clinical and admin roles, admin
// notes by administrators and assignors, and private notes only by their
// author.
package notestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	notes   *mongo.Collection
	studies *mongo.Collection
}

var (
	ErrTextRequired  = errors.New("note text is required")
	ErrBadVisibility = errors.New("unknown note visibility")
	ErrNotVisible    = errors.New("note is not visible to this user")
)

func New(db *mongo.Database) *Store {
	return &Store{
		notes:   db.Collection("study_notes"),
		studies: db.Collection("dicom_studies"),
	}
}

var (
	medicalReaders = roles.NewSet(
		roles.Radiologist, roles.Verifier, roles.Physician, roles.DoctorAccount,
		roles.Typist, roles.Admin, roles.Owner, roles.SuperAdmin,
	)
	adminReaders = roles.NewSet(
		roles.Admin, roles.Owner, roles.SuperAdmin, roles.GroupID, roles.Assignor,
	)
)

// ValidVisibility reports whether v names a visibility tier.
func ValidVisibility(v string) bool {
	switch v {
	case models.NoteVisibilityPublic, models.NoteVisibilityMedical,
		models.NoteVisibilityAdmin, models.NoteVisibilityPrivate:
		return true
	}
	return false
}

// Tiers returns the shared tiers a holder of set may read. Private notes
// are never included; they are matched by author.
func Tiers(set roles.Set) []string {
	out := []string{models.NoteVisibilityPublic}
	if set.Intersects(medicalReaders) {
		out = append(out, models.NoteVisibilityMedical)
	}
	if set.Intersects(adminReaders) {
		out = append(out, models.NoteVisibilityAdmin)
	}
	return out
}

// CanRead reports whether a viewer with the given id and roles may see n.
func CanRead(n models.StudyNote, viewer primitive.ObjectID, set roles.Set) bool {
	if n.Author.ID == viewer {
		return true
	}
	for _, tier := range Tiers(set) {
		if n.Visibility == tier {
			return true
		}
	}
	return false
}

// Add stores a note on a study and bumps the study's notes counter. An
// empty visibility becomes public. Returns mongo.ErrNoDocuments when the
// study does not exist in the tenant. Callers that need the counter and
// the note to commit together run Add inside txn.Run.
func (s *Store) Add(ctx context.Context, n models.StudyNote) (models.StudyNote, error) {
	n.Text = strings.TrimSpace(n.Text)
	if n.Text == "" {
		return models.StudyNote{}, ErrTextRequired
	}
	if n.Visibility == "" {
		n.Visibility = models.NoteVisibilityPublic
	}
	if !ValidVisibility(n.Visibility) {
		return models.StudyNote{}, ErrBadVisibility
	}

	now := time.Now().UTC()
	res, err := s.studies.UpdateOne(ctx,
		bson.M{"_id": n.StudyID, "organization_identifier": n.OrganizationIdentifier},
		bson.M{"$inc": bson.M{"notes_count": 1}, "$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return models.StudyNote{}, err
	}
	if res.MatchedCount == 0 {
		return models.StudyNote{}, mongo.ErrNoDocuments
	}

	n.ID = primitive.NewObjectID()
	n.Replies = nil
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := s.notes.InsertOne(ctx, n); err != nil {
		return models.StudyNote{}, err
	}
	return n, nil
}

// Reply appends a reply to a note on studyID the author is allowed to
// read. A note on another study is reported as mongo.ErrNoDocuments.
func (s *Store) Reply(ctx context.Context, studyID, noteID primitive.ObjectID, orgIdentifier string, author models.NoteAuthor, set roles.Set, body string) (models.StudyNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.StudyNote{}, ErrTextRequired
	}

	filter := bson.M{"_id": noteID, "study": studyID, "organization_identifier": orgIdentifier}
	var n models.StudyNote
	if err := s.notes.FindOne(ctx, filter).Decode(&n); err != nil {
		return models.StudyNote{}, err
	}
	if !CanRead(n, author.ID, set) {
		return models.StudyNote{}, ErrNotVisible
	}

	now := time.Now().UTC()
	reply := models.NoteReply{ID: primitive.NewObjectID(), Author: author, Text: body, CreatedAt: now}
	var out models.StudyNote
	err := s.notes.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$push": bson.M{"replies": reply}, "$set": bson.M{"updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return models.StudyNote{}, err
	}
	return out, nil
}

// ListVisible returns the notes on a study that the viewer may read,
// oldest first.
func (s *Store) ListVisible(ctx context.Context, studyID primitive.ObjectID, orgIdentifier string, viewer primitive.ObjectID, set roles.Set) ([]models.StudyNote, error) {
	filter := bson.M{
		"study":                   studyID,
		"organization_identifier": orgIdentifier,
		"$or": []bson.M{
			{"visibility": bson.M{"$in": Tiers(set)}},
			{"author.id": viewer},
		},
	}
	cur, err := s.notes.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StudyNote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
