// Package authapi serves the /api/auth endpoints: password and lab login,
// the current user, logout, token refresh and the super_admin
// organization switch.
package authapi

import (
	"net/http"
	"time"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	loginstore "github.com/dalemusser/radhub/internal/app/store/logins"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/app/system/ratelimit"
	"github.com/dalemusser/radhub/internal/app/system/signin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CookieConfig describes the auth cookie set next to the JSON token.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

type Handler struct {
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	Issuer   *signin.Issuer
	Users    *userstore.Store
	Orgs     *organizationstore.Store
	Logins   *loginstore.Store
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.LoginLimiter
	Cookie   CookieConfig
}

func NewHandler(
	db *mongo.Database,
	issuer *signin.Issuer,
	limiter *ratelimit.LoginLimiter,
	auditLog *auditlog.Logger,
	errLog *apierrors.ErrorLogger,
	cookie CookieConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		Issuer:   issuer,
		Users:    userstore.New(db),
		Orgs:     organizationstore.New(db),
		Logins:   loginstore.New(db),
		AuditLog: auditLog,
		Limiter:  limiter,
		Cookie:   cookie,
	}
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, token string) {
	if h.Cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Domain:   h.Cookie.Domain,
		MaxAge:   int(h.Cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	if h.Cookie.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.Cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}
