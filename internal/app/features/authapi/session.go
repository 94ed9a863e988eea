package authapi

import (
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/signin"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleMe handles GET /api/auth/me. The response carries the principal's
// current state plus the organization context of the presented token.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "me profile")
	defer cancel()

	lab, doctor, err := h.Issuer.Profile(ctx, p.User)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading profile", err, "")
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{
		"user": NewUserView(ViewInput{User: p.User, Org: p.Tenant.Org, Lab: lab, Doctor: doctor}),
		"tokenContext": respond.Body{
			"organizationId":         p.Token.OrganizationID,
			"organizationIdentifier": p.Token.OrganizationIdentifier,
			"labId":                  p.Token.LabID,
			"labIdentifier":          p.Token.LabIdentifier,
			"kind":                   p.Token.Kind,
		},
		"redirectTo": signin.RedirectFor(p.User.Role),
	})
}

// HandleLogout handles POST /api/auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	if err := h.Users.SetLoggedOut(ctx, p.User.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "database error clearing login flag", err, "")
		return
	}
	h.AuditLog.Logout(ctx, r, p.User.ID, p.OrganizationIdentifier())

	h.clearAuthCookie(w)
	respond.OK(w, http.StatusOK, respond.Body{"message": "Logged out successfully"})
}

// HandleRefresh handles POST /api/auth/refresh-token. The guard has already
// re-validated the user and organization.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "refresh token")
	defer cancel()

	s, err := h.Issuer.Refresh(ctx, p)
	if err != nil {
		h.ErrLog.Handle(w, r, "token refresh failed", err)
		return
	}
	h.AuditLog.TokenRefreshed(ctx, r, p.User.ID, p.OrganizationIdentifier())

	h.setAuthCookie(w, s.Token)
	respond.OK(w, http.StatusOK, respond.Body{
		"token":     s.Token,
		"expiresAt": s.ExpiresAt.UTC(),
	})
}

type switchRequest struct {
	OrganizationID string `json:"organizationId"`
}

// HandleSwitchOrganization handles POST /api/auth/switch-organization
// (super_admin only).
func (h *Handler) HandleSwitchOrganization(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	var in switchRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	orgID, ok := shared.ParseObjectID(w, r, in.OrganizationID, "organization")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "switch organization")
	defer cancel()

	from := p.OrganizationIdentifier()
	s, err := h.Issuer.SwitchOrganization(ctx, p, orgID)
	if err != nil {
		h.ErrLog.Handle(w, r, "organization switch failed", err)
		return
	}
	h.AuditLog.OrganizationSwitched(ctx, r, p.User.ID, from, s.Org.Identifier)

	h.setAuthCookie(w, s.Token)
	respond.OK(w, http.StatusOK, respond.Body{
		"message":      "Switched organization",
		"token":        s.Token,
		"expiresAt":    s.ExpiresAt.UTC(),
		"organization": NewOrganizationView(*s.Org),
	})
}

// HandleOrganizations handles GET /api/auth/organizations (super_admin
// only): the active organizations a super_admin can switch into.
func (h *Handler) HandleOrganizations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list organizations")
	defer cancel()

	orgs, err := h.Orgs.ListActive(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing organizations", err, "")
		return
	}

	out := make([]OrganizationView, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, NewOrganizationView(o))
	}
	h.Log.Debug("listed organizations", zap.Int("count", len(out)))
	respond.OK(w, http.StatusOK, respond.Body{"data": out})
}
