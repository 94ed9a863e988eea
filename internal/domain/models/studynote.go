package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note visibility tiers, from widest to narrowest audience.
const (
	NoteVisibilityPublic  = "public"
	NoteVisibilityMedical = "medical"
	NoteVisibilityAdmin   = "admin"
	NoteVisibilityPrivate = "private"
)

// StudyNote is a threaded annotation on a DicomStudy.
type StudyNote struct {
	ID                     primitive.ObjectID `bson:"_id"`
	StudyID                primitive.ObjectID `bson:"study"`
	OrganizationIdentifier string             `bson:"organization_identifier"`
	Author                 NoteAuthor         `bson:"author"`
	Text                   string             `bson:"text"`
	Visibility             string             `bson:"visibility"`
	Replies                []NoteReply        `bson:"replies,omitempty"`
	CreatedAt              time.Time          `bson:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at"`
}

type NoteAuthor struct {
	ID   primitive.ObjectID `bson:"id"`
	Name string             `bson:"name"`
	Role string             `bson:"role"`
}

type NoteReply struct {
	ID        primitive.ObjectID `bson:"id"`
	Author    NoteAuthor         `bson:"author"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"created_at"`
}
