package superadmin

import (
	"context"
	"errors"
	"net/http"
	"time"

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

type subscriptionInput struct {
	Plan                string     `json:"plan"`
	MaxUsers            int        `json:"maxUsers"`
	MaxStudiesPerMonth  int        `json:"maxStudiesPerMonth"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}

type adminInput struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type createRequest struct {
	Name         string            `json:"name"`
	DisplayName  string            `json:"displayName"`
	Subscription subscriptionInput `json:"subscription"`
	Features     map[string]bool   `json:"features"`
	Admin        adminInput        `json:"admin"`
}

// HandleCreate handles POST /api/superadmin/organizations.
//
// The organization and its first admin are written in one transaction:
// both exist afterwards or neither does. Without transaction support the
// organization is deleted again if the admin cannot be created. When no
// admin password is given a temporary one is generated and returned once.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	var in createRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Admin.Email = normalize.Email(in.Admin.Email)
	if in.Name == "" || in.Admin.Email == "" {
		apierrors.RenderBadRequest(w, r, "Organization name and admin email are required")
		return
	}
	if !validate.SimpleEmailValid(in.Admin.Email) {
		apierrors.RenderBadRequest(w, r, "Invalid admin email address")
		return
	}

	password, temporary := in.Admin.Password, false
	if password == "" {
		p, err := passwords.Temporary()
		if err != nil {
			h.ErrLog.LogServerError(w, r, "generate temporary password", err, "")
			return
		}
		password, temporary = p, true
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create organization")
	defer cancel()

	switch _, err := h.Users.GetByEmail(ctx, in.Admin.Email); {
	case err == nil:
		h.ErrLog.Handle(w, r, "create organization failed", userstore.ErrDuplicateEmail)
		return
	case !errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogServerError(w, r, "database error checking admin email", err, "")
		return
	}

	code, err := h.Codes.Generate(ctx)
	if err != nil {
		h.ErrLog.Handle(w, r, "generate organization identifier", err)
		return
	}

	var (
		org   models.Organization
		admin models.User
	)
	createdBy := actor.User.ID
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		org, err = h.Orgs.Create(ctx, models.Organization{
			Name:        in.Name,
			Identifier:  code,
			DisplayName: normalize.Name(in.DisplayName),
			Subscription: models.Subscription{
				Plan:                in.Subscription.Plan,
				MaxUsers:            in.Subscription.MaxUsers,
				MaxStudiesPerMonth:  in.Subscription.MaxStudiesPerMonth,
				SubscriptionEndDate: in.Subscription.SubscriptionEndDate,
			},
			Features:  in.Features,
			CreatedBy: &createdBy,
		})
		if err != nil {
			return err
		}

		orgID := org.ID
		admin, err = h.Users.Create(ctx, userstore.NewUser{
			User: models.User{
				Email:                  in.Admin.Email,
				FullName:               in.Admin.FullName,
				Role:                   roles.Admin,
				OrganizationID:         &orgID,
				OrganizationIdentifier: org.Identifier,
				IsActive:               true,
				CreatedBy:              &createdBy,
			},
			Password:  password,
			Temporary: temporary,
		}, h.BcryptCost)
		return err
	})
	if err != nil {
		if !org.ID.IsZero() {
			if derr := h.Orgs.Delete(ctx, org.ID); derr != nil {
				h.Log.Error("remove organization after failed create",
					zap.String("org_id", org.ID.Hex()), zap.Error(derr))
			}
		}
		h.ErrLog.Handle(w, r, "create organization failed", err)
		return
	}

	h.AuditLog.OrgCreated(ctx, r, actor.User.ID, org.ID, org.Identifier, org.Name)
	h.AuditLog.UserCreated(ctx, r, actor.User.ID, admin.ID, org.Identifier, admin.Role)

	body := respond.Body{
		"message":      "Organization created",
		"organization": authapi.NewOrganizationView(org),
		"admin":        authapi.NewUserView(authapi.ViewInput{User: admin, Org: &org}),
	}
	if temporary {
		body["tempPassword"] = password
	}
	respond.OK(w, http.StatusCreated, body)
}

type organizationRow struct {
	authapi.OrganizationView
	UserCount int64 `json:"userCount"`
}

// HandleList handles GET /api/superadmin/organizations, optionally
// filtered by ?status=active|inactive.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	status := normalize.Status(r.URL.Query().Get("status"))
	if status != "" && status != models.OrgStatusActive && status != models.OrgStatusInactive {
		apierrors.RenderBadRequest(w, r, "Invalid status filter")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list organizations")
	defer cancel()

	orgs, err := h.Orgs.List(ctx, status)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing organizations", err, "")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.ID)
	}
	counts, err := h.Users.CountByOrganizations(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting users", err, "")
		return
	}

	rows := make([]organizationRow, 0, len(orgs))
	for _, o := range orgs {
		rows = append(rows, organizationRow{
			OrganizationView: authapi.NewOrganizationView(o),
			UserCount:        counts[o.ID],
		})
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": rows})
}

// HandleDeactivate handles DELETE /api/superadmin/organizations/{id}: the
// organization goes inactive and its users, labs and doctor profiles are
// deactivated in the same transaction.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "organization")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "deactivate organization")
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Handle(w, r, "load organization", err)
		return
	}

	var users, labs, doctors int64
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Orgs.SetStatus(ctx, id, models.OrgStatusInactive); err != nil {
			return err
		}
		var err error
		if users, err = h.Users.DeactivateByOrganization(ctx, id); err != nil {
			return err
		}
		if labs, err = h.Labs.DeactivateByOrganization(ctx, id); err != nil {
			return err
		}
		doctors, err = h.Doctors.DeactivateByOrganization(ctx, id)
		return err
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "deactivate organization failed", err)
		return
	}

	h.AuditLog.OrgDeactivated(ctx, r, actor.User.ID, id, org.Identifier, users)
	h.Log.Info("organization deactivated",
		zap.String("org", org.Identifier),
		zap.Int64("users", users),
		zap.Int64("labs", labs),
		zap.Int64("doctors", doctors))

	respond.OK(w, http.StatusOK, respond.Body{
		"message":            "Organization deactivated",
		"usersDeactivated":   users,
		"labsDeactivated":    labs,
		"doctorsDeactivated": doctors,
	})
}
