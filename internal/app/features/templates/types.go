package templates

import (
	"time"

	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/domain/models"
)

type saveRequest struct {
	Title          string `json:"title"`
	Category       string `json:"category"`
	HTMLContent    string `json:"htmlContent"`
	TemplateScope  string `json:"templateScope"`
	AssignedDoctor string `json:"assignedDoctor"`
}

type templateView struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category,omitempty"`
	HTMLContent    string    `json:"htmlContent"`
	TemplateScope  string    `json:"templateScope"`
	AssignedDoctor string    `json:"assignedDoctor,omitempty"`
	IsActive       bool      `json:"isActive"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func newTemplateView(t models.HTMLTemplate) templateView {
	v := templateView{
		ID:            t.ID.Hex(),
		Title:         t.Title,
		Category:      t.Category,
		HTMLContent:   t.HTMLContent,
		TemplateScope: t.TemplateScope,
		IsActive:      t.IsActive,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.AssignedDoctor != nil {
		v.AssignedDoctor = t.AssignedDoctor.Hex()
	}
	return v
}

// reporters can own doctor_specific templates.
var reporters = roles.NewSet(roles.Radiologist, roles.DoctorAccount)

// managers see and edit every template of the organization. Reporters
// without a manager role only see global templates and their own.
var managers = roles.NewSet(roles.OrgAdmins...)
