package authapi

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/signin"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.uber.org/zap"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// HandleLabLogin handles POST /api/auth/lab-login, the lab connector's
// stricter variant of login.
func (h *Handler) HandleLabLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, lab bool) {
	var in credentials
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		apierrors.RenderBadRequest(w, r, "Please provide email and password")
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, email, msg)
			apierrors.RenderTooManyRequests(w, r, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	var (
		s   signin.Session
		err error
	)
	if lab {
		s, err = h.Issuer.LabLogin(ctx, email, in.Password)
	} else {
		s, err = h.Issuer.Login(ctx, email, in.Password)
	}
	if err != nil {
		h.auditFailure(ctx, r, email, err, lab)
		h.ErrLog.Handle(w, r, "login failed", err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	provider := models.LoginProviderPassword
	if lab {
		provider = models.LoginProviderLab
	}
	if err := h.Logins.CreateFrom(ctx, r, s.User.ID, s.User.OrganizationIdentifier, provider); err != nil {
		h.Log.Warn("failed to record login", zap.Error(err), zap.String("user_id", s.User.ID.Hex()))
	}
	if lab {
		h.AuditLog.LabLoginSuccess(ctx, r, s.Lab.ID, s.User.OrganizationIdentifier)
	} else {
		h.AuditLog.LoginSuccess(ctx, r, s.User.ID, s.User.OrganizationIdentifier, provider)
	}

	h.setAuthCookie(w, s.Token)
	respond.OK(w, http.StatusOK, respond.Body{
		"message":    "Login successful",
		"token":      s.Token,
		"expiresAt":  s.ExpiresAt.UTC(),
		"redirectTo": s.RedirectTo,
		"user": NewUserView(ViewInput{
			User:   s.User,
			Org:    s.Org,
			Lab:    s.Lab,
			Doctor: s.Doctor,
		}),
	})
}

// auditFailure records why a sign-in was rejected. Failures that never
// reached a user record are logged against the email.
func (h *Handler) auditFailure(ctx context.Context, r *http.Request, email string, err error, lab bool) {
	var f *signin.Failure
	if !errors.As(err, &f) {
		return
	}
	if f.User == nil {
		if lab {
			h.AuditLog.LabLoginFailed(ctx, r, "", "", "unknown email "+email)
			return
		}
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		return
	}

	u := f.User
	if lab {
		h.AuditLog.LabLoginFailed(ctx, r, u.OrganizationIdentifier, "", f.Err.Error())
		return
	}
	switch {
	case errors.Is(err, signin.ErrInvalidCredentials):
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.OrganizationIdentifier)
	case errors.Is(err, signin.ErrInactive):
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.OrganizationIdentifier)
	default:
		h.AuditLog.LoginFailedOrganization(ctx, r, u.ID, u.OrganizationIdentifier, f.Err.Error())
	}
}
