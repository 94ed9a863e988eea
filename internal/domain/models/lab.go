package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lab is an imaging site under an organization.
type Lab struct {
	ID                     primitive.ObjectID `bson:"_id"`
	Name                   string             `bson:"name"`
	NameCI                 string             `bson:"name_ci"`
	Identifier             string             `bson:"identifier"`
	OrganizationID         primitive.ObjectID `bson:"organization"`
	OrganizationIdentifier string             `bson:"organization_identifier"`
	IsActive               bool               `bson:"is_active"`

	Settings       LabSettings    `bson:"settings"`
	ReportBranding ReportBranding `bson:"report_branding"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type LabSettings struct {
	EnableCompression bool `bson:"enable_compression"`
	AutoAssign        bool `bson:"auto_assign"`
}

// ReportBranding holds header/footer image metadata. The images themselves
// live in external object storage.
type ReportBranding struct {
	Header BrandingImage `bson:"header"`
	Footer BrandingImage `bson:"footer"`
}

type BrandingImage struct {
	URL       string     `bson:"url,omitempty"`
	Width     int        `bson:"width,omitempty"`
	Height    int        `bson:"height,omitempty"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty"`
}
