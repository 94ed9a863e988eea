// Package studystore persists DicomStudy workflow records.
//
// Workflow status is only changed through Transition, which writes the new
// status only if the stored status still equals the caller's expected
// one. Legality of the move is decided by the workflow package before the
// call.
package studystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateStudy = errors.New("study already exists in this organization")
	ErrInvalid        = errors.New("study instance UID and organization are required")
	ErrUnknownBucket  = errors.New("unknown status bucket")
	// ErrStatusChanged: the study's status moved since the caller read it.
	ErrStatusChanged = errors.New("study status changed concurrently")
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 200

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("dicom_studies")}
}

// Create inserts a study. An empty status becomes new_study_received.
func (s *Store) Create(ctx context.Context, st models.DicomStudy) (models.DicomStudy, error) {
	st.StudyInstanceUID = normalize.QueryParam(st.StudyInstanceUID)
	st.OrganizationIdentifier = normalize.Identifier(st.OrganizationIdentifier)
	if st.StudyInstanceUID == "" || st.OrganizationID.IsZero() || st.OrganizationIdentifier == "" {
		return models.DicomStudy{}, ErrInvalid
	}
	if st.WorkflowStatus == "" {
		st.WorkflowStatus = string(workflow.NewStudyReceived)
	}
	status := workflow.Status(st.WorkflowStatus)
	bucket, ok := status.Bucket()
	if !ok {
		return models.DicomStudy{}, workflow.ErrUnknownStatus
	}

	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.CategoryTracking = models.CategoryTracking{Current: string(bucket), LastUpdatedAt: &now}
	setEntered(&st.CategoryTracking, bucket, now)
	st.StatusHistory = nil
	st.NotesCount = 0
	st.CreatedAt = now
	st.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.DicomStudy{}, ErrDuplicateStudy
		}
		return models.DicomStudy{}, err
	}
	return st, nil
}

func setEntered(ct *models.CategoryTracking, b workflow.Bucket, at time.Time) {
	switch b {
	case workflow.BucketPending:
		ct.PendingEnteredAt = &at
	case workflow.BucketInProgress:
		ct.InProgressEnteredAt = &at
	case workflow.BucketCompleted:
		ct.CompletedEnteredAt = &at
	}
}

func enteredField(b workflow.Bucket) string {
	return "category_tracking." + string(b) + "_entered_at"
}

// GetByID loads a study inside a tenant. Returns mongo.ErrNoDocuments when
// absent or owned by another tenant.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID, orgIdentifier string) (models.DicomStudy, error) {
	var st models.DicomStudy
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_identifier": orgIdentifier}).Decode(&st); err != nil {
		return models.DicomStudy{}, err
	}
	return st, nil
}

// ListFilter narrows List.
type ListFilter struct {
	OrganizationIdentifier string
	Bucket                 workflow.Bucket     // empty: every bucket
	AssignedTo             *primitive.ObjectID // nil: any assignee
	IDWindow               bson.M              // optional _id condition for keyset paging
	Limit                  int64
}

// List returns a tenant's studies, newest first. Ids are minted at insert
// so _id order is creation order.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.DicomStudy, error) {
	filter := bson.M{"organization_identifier": f.OrganizationIdentifier}
	if f.Bucket != "" {
		if !f.Bucket.Valid() {
			return nil, ErrUnknownBucket
		}
		filter["workflow_status"] = bson.M{"$in": f.Bucket.Members()}
	}
	if f.AssignedTo != nil {
		filter["assignment.assigned_to"] = *f.AssignedTo
	}
	if f.IDWindow != nil {
		filter["_id"] = f.IDWindow
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"status_history": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DicomStudy
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByBucket returns study counts per bucket for a tenant. Every bucket
// is present in the result.
func (s *Store) CountByBucket(ctx context.Context, orgIdentifier string) (map[workflow.Bucket]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization_identifier": orgIdentifier}}},
		{{Key: "$group", Value: bson.M{"_id": "$workflow_status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[workflow.Bucket]int64, len(workflow.Buckets))
	for _, b := range workflow.Buckets {
		out[b] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if b, ok := workflow.Status(row.Status).Bucket(); ok {
			out[b] += row.N
		}
	}
	return out, cur.Err()
}

// Change describes one workflow move.
type Change struct {
	StudyID                primitive.ObjectID
	OrganizationIdentifier string
	From                   workflow.Status
	To                     workflow.Status
	By                     primitive.ObjectID
	Role                   string
	Note                   string
	At                     time.Time
	// Assignment, when set, replaces the study's assignment in the same write.
	Assignment *models.Assignment
}

// Transition moves a study from c.From to c.To and appends a history entry.
// It returns ErrStatusChanged when the study is no longer in c.From, and
// mongo.ErrNoDocuments when the study does not exist in the tenant.
func (s *Store) Transition(ctx context.Context, c Change) (models.DicomStudy, error) {
	bucket, ok := c.To.Bucket()
	if !ok {
		return models.DicomStudy{}, workflow.ErrUnknownStatus
	}
	at := c.At.UTC()
	if c.At.IsZero() {
		at = time.Now().UTC()
	}

	set := bson.M{
		"workflow_status":                   string(c.To),
		"category_tracking.current":         string(bucket),
		"category_tracking.last_updated_at": at,
		"updated_at":                        at,
	}
	if c.Assignment != nil {
		set["assignment"] = *c.Assignment
	}
	update := bson.M{
		"$set": set,
		"$min": bson.M{enteredField(bucket): at},
		"$push": bson.M{"status_history": models.StatusChange{
			From:      string(c.From),
			To:        string(c.To),
			ChangedBy: c.By,
			Role:      c.Role,
			Note:      c.Note,
			At:        at,
		}},
	}
	filter := bson.M{
		"_id":                     c.StudyID,
		"organization_identifier": c.OrganizationIdentifier,
		"workflow_status":         string(c.From),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var st models.DicomStudy
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&st)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.DicomStudy{}, err
	}

	// Tell "gone" apart from "moved".
	if _, gerr := s.GetByID(ctx, c.StudyID, c.OrganizationIdentifier); gerr != nil {
		return models.DicomStudy{}, gerr
	}
	return models.DicomStudy{}, ErrStatusChanged
}
