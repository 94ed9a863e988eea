package labs

import (
	"net/http"
	"strings"

	"github.com/dalemusser/radhub/internal/app/features/authapi"
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/domain/models"
)

type createRequest struct {
	Name              string `json:"name"`
	Identifier        string `json:"identifier"`
	EnableCompression bool   `json:"enableCompression"`
	AutoAssign        bool   `json:"autoAssign"`
}

// HandleCreate handles POST /api/admin/labs.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}
	orgID, ok := p.OrganizationID()
	org := p.OrganizationIdentifier()
	if !ok || org == "" {
		apierrors.RenderBadRequest(w, r, "Switch to an organization first")
		return
	}

	var in createRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Identifier) == "" {
		apierrors.RenderBadRequest(w, r, "Lab name and identifier are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create lab")
	defer cancel()

	lab, err := h.Labs.Create(ctx, models.Lab{
		Name:                   in.Name,
		Identifier:             in.Identifier,
		OrganizationID:         orgID,
		OrganizationIdentifier: org,
		Settings: models.LabSettings{
			EnableCompression: in.EnableCompression,
			AutoAssign:        in.AutoAssign,
		},
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "create lab failed", err)
		return
	}

	h.AuditLog.LabCreated(ctx, r, p.User.ID, lab.ID, org, lab.Identifier)
	respond.OK(w, http.StatusCreated, respond.Body{
		"message": "Lab created",
		"lab":     authapi.NewLabView(lab),
	})
}

// HandleList handles GET /api/admin/labs. ?active=true hides disabled labs.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}
	org := p.OrganizationIdentifier()
	if org == "" {
		apierrors.RenderBadRequest(w, r, "Switch to an organization first")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list labs")
	defer cancel()

	labs, err := h.Labs.ListByOrganization(ctx, org, r.URL.Query().Get("active") == "true")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing labs", err, "")
		return
	}
	out := make([]authapi.LabView, 0, len(labs))
	for _, l := range labs {
		out = append(out, authapi.NewLabView(l))
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": out})
}
