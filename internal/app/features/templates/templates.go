package templates

import (
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	templatestore "github.com/dalemusser/radhub/internal/app/store/templates"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// visibleTo reports whether p may see t.
func visibleTo(p *auth.Principal, t models.HTMLTemplate) bool {
	if p.Roles.Intersects(managers) || t.TemplateScope == models.TemplateScopeGlobal {
		return true
	}
	return t.AssignedDoctor != nil && *t.AssignedDoctor == p.User.ID
}

// HandleList handles GET /api/templates?category=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	f := templatestore.ListFilter{
		OrganizationIdentifier: org,
		Category:               r.URL.Query().Get("category"),
	}
	if !p.Roles.Intersects(managers) {
		me := p.User.ID
		f.Doctor = &me
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list templates")
	defer cancel()

	list, err := h.Templates.List(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing templates", err, "")
		return
	}
	out := make([]templateView, 0, len(list))
	for _, t := range list {
		out = append(out, newTemplateView(t))
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": out})
}

// HandleGet handles GET /api/templates/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "template")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get template")
	defer cancel()

	t, err := h.Templates.GetByID(ctx, id, org)
	if err == nil && !visibleTo(p, t) {
		err = mongo.ErrNoDocuments
	}
	if err != nil {
		h.ErrLog.Handle(w, r, "database error loading template", err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Body{"template": newTemplateView(t)})
}

// HandleCreate handles POST /api/templates.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, primitive.NilObjectID)
}

// HandleUpdate handles PUT /api/templates/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectIDParam(w, r, "id", "template")
	if !ok {
		return
	}
	h.save(w, r, id)
}

// save creates (zero id) or overwrites a template. A reporter without a
// manager role may only save templates bound to themself; a
// doctor_specific template with no assignee is bound to the caller.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	orgID, _ := p.OrganizationID()

	var in saveRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	scope := normalize.Status(in.TemplateScope)
	manager := p.Roles.Intersects(managers)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save template")
	defer cancel()

	var doctor *primitive.ObjectID
	if scope == models.TemplateScopeDoctorSpecific {
		docID := p.User.ID
		if in.AssignedDoctor != "" {
			parsed, ok := shared.ParseObjectID(w, r, in.AssignedDoctor, "doctor")
			if !ok {
				return
			}
			docID = parsed
		}
		if docID != p.User.ID {
			if !manager {
				apierrors.RenderForbidden(w, r, "You can only save your own templates")
				return
			}
			u, err := h.Users.GetByIDInOrg(ctx, docID, org)
			if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !roles.Of(u.Role, u.AccountRoles).Intersects(reporters)) {
				apierrors.RenderBadRequest(w, r, "Assigned doctor not found in this organization")
				return
			}
			if err != nil {
				h.ErrLog.LogServerError(w, r, "database error loading doctor", err, "")
				return
			}
		}
		doctor = &docID
	} else if !manager {
		apierrors.RenderForbidden(w, r, "Only administrators can save global templates")
		return
	}

	if !id.IsZero() && !manager {
		existing, err := h.Templates.GetByID(ctx, id, org)
		if err == nil && !visibleTo(p, existing) {
			err = mongo.ErrNoDocuments
		}
		if err != nil {
			h.ErrLog.Handle(w, r, "database error loading template", err)
			return
		}
		if existing.TemplateScope != models.TemplateScopeDoctorSpecific {
			apierrors.RenderForbidden(w, r, "Only administrators can save global templates")
			return
		}
	}

	createdBy := p.User.ID
	saved, err := h.Templates.Save(ctx, models.HTMLTemplate{
		ID:                     id,
		Title:                  in.Title,
		Category:               in.Category,
		HTMLContent:            in.HTMLContent,
		TemplateScope:          scope,
		AssignedDoctor:         doctor,
		OrganizationID:         orgID,
		OrganizationIdentifier: org,
		CreatedBy:              &createdBy,
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "save template failed", err)
		return
	}

	h.AuditLog.TemplateSaved(ctx, r, p.User.ID, saved.ID, org, saved.Title)
	status := http.StatusOK
	if id.IsZero() {
		status = http.StatusCreated
	}
	respond.OK(w, status, respond.Body{"message": "Template saved", "template": newTemplateView(saved)})
}

// HandleDeactivate handles DELETE /api/templates/{id}.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	_, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "template")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "deactivate template")
	defer cancel()

	found, err := h.Templates.Deactivate(ctx, id, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deactivating template", err, "")
		return
	}
	if !found {
		apierrors.RenderNotFound(w, r, "Template not found")
		return
	}
	respond.OK(w, http.StatusOK, respond.Body{"message": "Template removed"})
}
