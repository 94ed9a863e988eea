package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Template scopes.
const (
	TemplateScopeGlobal         = "global"
	TemplateScopeDoctorSpecific = "doctor_specific"
)

// HTMLTemplate is a reusable report template, either usable by every doctor
// in the organization (global) or bound to one doctor (doctor_specific).
type HTMLTemplate struct {
	ID                     primitive.ObjectID  `bson:"_id"`
	Title                  string              `bson:"title"`
	TitleCI                string              `bson:"title_ci"`
	Category               string              `bson:"category,omitempty"`
	HTMLContent            string              `bson:"html_content"`
	TemplateScope          string              `bson:"template_scope"`
	AssignedDoctor         *primitive.ObjectID `bson:"assigned_doctor"`
	OrganizationID         primitive.ObjectID  `bson:"organization"`
	OrganizationIdentifier string              `bson:"organization_identifier"`
	IsActive               bool                `bson:"is_active"`
	CreatedBy              *primitive.ObjectID `bson:"created_by,omitempty"`
	CreatedAt              time.Time           `bson:"created_at"`
	UpdatedAt              time.Time           `bson:"updated_at"`
}
