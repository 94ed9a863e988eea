// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an individual credential holder.
//
// NOTE:
//   - Role is the primary role; AccountRoles are additional grants. Access
//     checks use the union of both (roles.Of).
//   - Every role except super_admin belongs to exactly one organization and
//     carries that organization's identifier.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`               // always lower-cased

	PasswordHash string `bson:"password" json:"-"`
	// TempPassword is set only for admin-issued credentials so the issuing
	// admin can read it back once. It is never sent to the user themself.
	TempPassword string `bson:"temp_password,omitempty" json:"-"`

	Role         string   `bson:"role" json:"role"`
	AccountRoles []string `bson:"account_roles,omitempty" json:"account_roles,omitempty"`

	OrganizationID         *primitive.ObjectID `bson:"organization,omitempty" json:"organization,omitempty"`
	OrganizationIdentifier string              `bson:"organization_identifier,omitempty" json:"organization_identifier,omitempty"`
	LabID                  *primitive.ObjectID `bson:"lab,omitempty" json:"lab,omitempty"`

	IsActive    bool       `bson:"is_active" json:"is_active"`
	IsLoggedIn  bool       `bson:"is_logged_in" json:"is_logged_in"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	LoginCount  int64      `bson:"login_count" json:"login_count"`

	VisibleColumns []string             `bson:"visible_columns,omitempty" json:"visible_columns,omitempty"`
	LinkedLabs     []primitive.ObjectID `bson:"linked_labs,omitempty" json:"linked_labs,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
