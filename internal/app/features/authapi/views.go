package authapi

import (
	"time"

	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/domain/models"
)

// OrganizationView is the organization summary sent to clients.
type OrganizationView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Identifier   string           `json:"identifier"`
	DisplayName  string           `json:"displayName"`
	Status       string           `json:"status"`
	Subscription SubscriptionView `json:"subscription"`
}

type SubscriptionView struct {
	Plan                string     `json:"plan"`
	MaxUsers            int        `json:"maxUsers"`
	MaxStudiesPerMonth  int        `json:"maxStudiesPerMonth"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty"`
}

// LabView is the lab summary sent to clients.
type LabView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Identifier        string `json:"identifier"`
	IsActive          bool   `json:"isActive"`
	EnableCompression bool   `json:"enableCompression"`
}

// DoctorView is the doctor profile embedded for doctor_account users.
type DoctorView struct {
	ID             string `json:"id"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
	Department     string `json:"department,omitempty"`
	SignatureURL   string `json:"signatureUrl,omitempty"`
}

// UserView is the user payload of login and /me responses. Optional parts
// are nil when they do not apply to the user's role or are not linked.
type UserView struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	FullName               string     `json:"fullName"`
	Role                   string     `json:"role"`
	AccountRoles           []string   `json:"accountRoles"`
	OrganizationIdentifier string     `json:"organizationIdentifier,omitempty"`
	IsActive               bool       `json:"isActive"`
	IsLoggedIn             bool       `json:"isLoggedIn"`
	LastLoginAt            *time.Time `json:"lastLoginAt,omitempty"`
	LoginCount             int64      `json:"loginCount"`
	VisibleColumns         []string   `json:"visibleColumns"`

	Organization *OrganizationView `json:"organization,omitempty"`
	Lab          *LabView          `json:"lab,omitempty"`
	Doctor       *DoctorView       `json:"doctor,omitempty"`
}

// ViewInput carries everything a UserView can be projected from.
type ViewInput struct {
	User   models.User
	Org    *models.Organization
	Lab    *models.Lab
	Doctor *models.Doctor
}

// NewUserView projects in for the user's role. The lab summary is only
// sent to lab_staff and the doctor profile only to doctor_account.
func NewUserView(in ViewInput) UserView {
	u := in.User
	v := UserView{
		ID:                     u.ID.Hex(),
		Email:                  u.Email,
		FullName:               u.FullName,
		Role:                   u.Role,
		AccountRoles:           nonNil(u.AccountRoles),
		OrganizationIdentifier: u.OrganizationIdentifier,
		IsActive:               u.IsActive,
		IsLoggedIn:             u.IsLoggedIn,
		LastLoginAt:            u.LastLoginAt,
		LoginCount:             u.LoginCount,
		VisibleColumns:         nonNil(u.VisibleColumns),
	}
	if in.Org != nil {
		ov := NewOrganizationView(*in.Org)
		v.Organization = &ov
	}
	if in.Lab != nil && u.Role == roles.LabStaff {
		lv := NewLabView(*in.Lab)
		v.Lab = &lv
	}
	if in.Doctor != nil && u.Role == roles.DoctorAccount {
		d := in.Doctor
		v.Doctor = &DoctorView{
			ID:             d.ID.Hex(),
			Specialization: d.Specialization,
			LicenseNumber:  d.LicenseNumber,
			Department:     d.Department,
			SignatureURL:   d.SignatureURL,
		}
	}
	return v
}

func NewOrganizationView(o models.Organization) OrganizationView {
	return OrganizationView{
		ID:          o.ID.Hex(),
		Name:        o.Name,
		Identifier:  o.Identifier,
		DisplayName: o.DisplayName,
		Status:      o.Status,
		Subscription: SubscriptionView{
			Plan:                o.Subscription.Plan,
			MaxUsers:            o.Subscription.MaxUsers,
			MaxStudiesPerMonth:  o.Subscription.MaxStudiesPerMonth,
			SubscriptionEndDate: o.Subscription.SubscriptionEndDate,
		},
	}
}

func NewLabView(l models.Lab) LabView {
	return LabView{
		ID:                l.ID.Hex(),
		Name:              l.Name,
		Identifier:        l.Identifier,
		IsActive:          l.IsActive,
		EnableCompression: l.Settings.EnableCompression,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
