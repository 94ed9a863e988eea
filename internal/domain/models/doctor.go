package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doctor is the professional profile attached to a doctor_account user.
type Doctor struct {
	ID                     primitive.ObjectID `bson:"_id"`
	UserID                 primitive.ObjectID `bson:"user_account"`
	OrganizationID         primitive.ObjectID `bson:"organization"`
	OrganizationIdentifier string             `bson:"organization_identifier"`
	Specialization         string             `bson:"specialization"`
	LicenseNumber          string             `bson:"license_number"`
	Department             string             `bson:"department,omitempty"`
	SignatureURL           string             `bson:"signature_url,omitempty"`
	IsActiveProfile        bool               `bson:"is_active_profile"`
	CreatedAt              time.Time          `bson:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at"`
}
