package systemusers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/radhub/internal/app/features/authapi"
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/app/system/txn"
	"github.com/dalemusser/radhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/admin/users. The account is created in
// the caller's organization. Without a password in the request a
// temporary one is generated and returned once. doctor_account users get
// their doctor profile in the same transaction; without transaction
// support the user is removed again if the profile cannot be written.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}
	orgID, org, ok := tenantOf(w, r, p)
	if !ok {
		return
	}

	var in createRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	in.Role = normalize.Role(in.Role)
	if normalize.Email(in.Email) == "" || in.Role == "" {
		apierrors.RenderBadRequest(w, r, "Email and role are required")
		return
	}
	if !validate.SimpleEmailValid(normalize.Email(in.Email)) {
		apierrors.RenderBadRequest(w, r, "Invalid email address")
		return
	}
	if !roles.IsValid(in.Role) {
		apierrors.RenderBadRequest(w, r, "Invalid role")
		return
	}
	if !canGrant(p.Roles, roles.Of(in.Role, in.AccountRoles)) {
		apierrors.RenderForbidden(w, r, "You cannot grant this role")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create user")
	defer cancel()

	var labID *primitive.ObjectID
	if in.LabID != "" {
		id, ok := shared.ParseObjectID(w, r, in.LabID, "lab")
		if !ok {
			return
		}
		lab, err := h.Labs.GetByID(ctx, id)
		if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && lab.OrganizationIdentifier != org) {
			apierrors.RenderBadRequest(w, r, "Lab not found in this organization")
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error loading lab", err, "")
			return
		}
		labID = &id
	}
	if in.Role == roles.LabStaff && labID == nil {
		apierrors.RenderBadRequest(w, r, "Lab staff need a lab")
		return
	}

	password, temporary := in.Password, false
	if password == "" {
		tmp, err := passwords.Temporary()
		if err != nil {
			h.ErrLog.LogServerError(w, r, "generate temporary password", err, "")
			return
		}
		password, temporary = tmp, true
	}

	createdBy := p.User.ID
	var (
		created models.User
		doctor  *models.Doctor
	)
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		created, err = h.Users.Create(ctx, userstore.NewUser{
			User: models.User{
				Email:                  in.Email,
				FullName:               in.FullName,
				Role:                   in.Role,
				AccountRoles:           in.AccountRoles,
				OrganizationID:         &orgID,
				OrganizationIdentifier: org,
				LabID:                  labID,
				VisibleColumns:         in.VisibleColumns,
				IsActive:               true,
				CreatedBy:              &createdBy,
			},
			Password:  password,
			Temporary: temporary,
		}, h.BcryptCost)
		if err != nil || created.Role != roles.DoctorAccount {
			return err
		}

		d := models.Doctor{UserID: created.ID, OrganizationID: orgID, OrganizationIdentifier: org, IsActiveProfile: true}
		if in.Doctor != nil {
			d.Specialization = normalize.Name(in.Doctor.Specialization)
			d.LicenseNumber = normalize.Name(in.Doctor.LicenseNumber)
			d.Department = normalize.Name(in.Doctor.Department)
		}
		saved, err := h.Doctors.Create(ctx, d)
		if err != nil {
			return err
		}
		doctor = &saved
		return nil
	})
	if err != nil {
		if !created.ID.IsZero() {
			if derr := h.Users.Delete(ctx, created.ID); derr != nil {
				h.Log.Error("remove user after failed create",
					zap.String("user_id", created.ID.Hex()), zap.Error(derr))
			}
		}
		h.ErrLog.Handle(w, r, "create user failed", err)
		return
	}

	h.AuditLog.UserCreated(ctx, r, p.User.ID, created.ID, org, created.Role)

	body := respond.Body{
		"message": "User created",
		"user":    authapi.NewUserView(authapi.ViewInput{User: created, Doctor: doctor}),
	}
	if temporary {
		body["tempPassword"] = password
	}
	respond.OK(w, http.StatusCreated, body)
}
