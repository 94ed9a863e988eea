// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization statuses.
const (
	OrgStatusActive   = "active"
	OrgStatusInactive = "inactive"
)

// Organization is the tenant boundary. Identifier is generated once at
// creation and never rewritten.
type Organization struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	NameCI       string             `bson:"name_ci"` // ← always stored
	Identifier   string             `bson:"identifier"`
	DisplayName  string             `bson:"display_name"`
	Status       string             `bson:"status"` // active | inactive
	Subscription Subscription       `bson:"subscription"`
	Features     map[string]bool    `bson:"features,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

// Subscription describes the plan limits of an organization.
// A nil SubscriptionEndDate means the subscription does not lapse.
type Subscription struct {
	Plan                string     `bson:"plan"`
	MaxUsers            int        `bson:"max_users"`
	MaxStudiesPerMonth  int        `bson:"max_studies_per_month"`
	SubscriptionEndDate *time.Time `bson:"subscription_end_date,omitempty"`
}
