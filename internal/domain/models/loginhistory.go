package models

import "time"

// Login providers.
const (
	LoginProviderPassword = "password"
	LoginProviderLab      = "lab"
)

// LoginRecord captures a single successful login. Lab logins have no user;
// UserID then holds the lab's ID.
type LoginRecord struct {
	UserID                 string    `bson:"user_id"`
	OrganizationIdentifier string    `bson:"organization_identifier,omitempty"`
	CreatedAt              time.Time `bson:"created_at"`
	IP                     string    `bson:"ip"`
	Provider               string    `bson:"provider"`
}
