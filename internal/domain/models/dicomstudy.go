package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DicomStudy is the workflow record of a radiology study. Pixel data lives
// in the PACS; only metadata and workflow state are stored here.
type DicomStudy struct {
	ID                     primitive.ObjectID  `bson:"_id"`
	StudyInstanceUID       string              `bson:"study_instance_uid"`
	OrthancStudyID         string              `bson:"orthanc_study_id,omitempty"`
	AccessionNumber        string              `bson:"accession_number,omitempty"`
	Modality               string              `bson:"modality,omitempty"`
	StudyDescription       string              `bson:"study_description,omitempty"`
	OrganizationID         primitive.ObjectID  `bson:"organization"`
	OrganizationIdentifier string              `bson:"organization_identifier"`
	SourceLabID            *primitive.ObjectID `bson:"source_lab,omitempty"`
	Patient                PatientRef          `bson:"patient"`

	WorkflowStatus   string           `bson:"workflow_status"`
	Assignment       Assignment       `bson:"assignment"`
	CategoryTracking CategoryTracking `bson:"category_tracking"`
	StatusHistory    []StatusChange   `bson:"status_history,omitempty"`
	NotesCount       int64            `bson:"notes_count"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type PatientRef struct {
	PatientID string `bson:"patient_id,omitempty"`
	Name      string `bson:"name,omitempty"`
	Sex       string `bson:"sex,omitempty"`
	Age       string `bson:"age,omitempty"`
}

type Assignment struct {
	AssignedTo *primitive.ObjectID `bson:"assigned_to,omitempty"`
	AssignedBy *primitive.ObjectID `bson:"assigned_by,omitempty"`
	AssignedAt *time.Time          `bson:"assigned_at,omitempty"`
	Priority   string              `bson:"priority,omitempty"` // normal | urgent | emergency
}

// CategoryTracking records when a study first entered each dashboard
// bucket plus the current bucket.
type CategoryTracking struct {
	Current             string     `bson:"current,omitempty"`
	PendingEnteredAt    *time.Time `bson:"pending_entered_at,omitempty"`
	InProgressEnteredAt *time.Time `bson:"inprogress_entered_at,omitempty"`
	CompletedEnteredAt  *time.Time `bson:"completed_entered_at,omitempty"`
	LastUpdatedAt       *time.Time `bson:"last_updated_at,omitempty"`
}

// StatusChange is one entry of a study's workflow history.
type StatusChange struct {
	From      string             `bson:"from"`
	To        string             `bson:"to"`
	ChangedBy primitive.ObjectID `bson:"changed_by"`
	Role      string             `bson:"role"`
	Note      string             `bson:"note,omitempty"`
	At        time.Time          `bson:"at"`
}
