package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/app/system/tokens"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TokenVerifier is satisfied by *tokens.Codec.
type TokenVerifier interface {
	Verify(raw string) (*tokens.Claims, error)
}

// UserSource loads users. Both methods return mongo.ErrNoDocuments when no
// user matches.
type UserSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDInOrg(ctx context.Context, id primitive.ObjectID, orgIdentifier string) (*models.User, error)
}

// TenantResolver is satisfied by *tenant.Resolver.
type TenantResolver interface {
	Resolve(ctx context.Context, u models.User) (tenant.Context, error)
}

// Guard authenticates API requests.
type Guard struct {
	tokens     TokenVerifier
	users      UserSource
	tenants    TenantResolver
	log        *zap.Logger
	cookieName string
}

// NewGuard builds a Guard. When cookieName is set, GET and HEAD requests
// without a header or query token may authenticate with that cookie.
func NewGuard(tv TokenVerifier, users UserSource, tenants TenantResolver, cookieName string, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{tokens: tv, users: users, tenants: tenants, cookieName: cookieName, log: log}
}

// TokenFromRequest returns the raw token: the Authorization bearer header
// first, then the "token" query parameter (direct download links), then
// the auth cookie for safe methods.
func (g *Guard) TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if tok = strings.TrimSpace(tok); tok != "" {
				return tok
			}
		}
	}
	if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
		return tok
	}
	if g.cookieName != "" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		if c, err := r.Cookie(g.cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// Protect rejects the request with 401 or 403 unless it carries a valid
// token for an active user in a usable organization. On success the
// Principal is available through CurrentUser.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := g.TokenFromRequest(r)
		if raw == "" {
			respond.Error(w, http.StatusUnauthorized, "Not authorized, no token", tokens.CodeMissing)
			return
		}

		claims, err := g.tokens.Verify(raw)
		if err != nil {
			code := tokens.Code(err)
			msg := "Not authorized, token failed"
			if code == tokens.CodeExpired {
				msg = "Token expired, please log in again"
			}
			respond.Error(w, http.StatusUnauthorized, msg, code)
			return
		}

		p, status, msg := g.resolve(r, claims)
		if p == nil {
			respond.Error(w, status, msg, "")
			return
		}
		next.ServeHTTP(w, withPrincipal(r, p))
	})
}

// resolve loads and validates the principal for claims. On failure it
// returns a nil principal with the status and message to send.
func (g *Guard) resolve(r *http.Request, claims *tokens.Claims) (*Principal, int, string) {
	id, err := primitive.ObjectIDFromHex(claims.SubjectID())
	if err != nil {
		return nil, http.StatusUnauthorized, "Not authorized, token failed"
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), g.log, "auth user lookup")
	defer cancel()

	var u *models.User
	if claims.Role == roles.SuperAdmin {
		u, err = g.users.GetByID(ctx, id)
	} else {
		u, err = g.users.GetByIDInOrg(ctx, id, claims.OrganizationIdentifier)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, http.StatusUnauthorized, "Not authorized, user not found"
	}
	if err != nil {
		g.log.Error("auth: user lookup failed", zap.Error(err), zap.String("user_id", id.Hex()))
		return nil, http.StatusInternalServerError, "Server error"
	}

	// A token issued before a demotion from super_admin no longer grants
	// global scope.
	if u.Role != roles.SuperAdmin && u.OrganizationIdentifier != claims.OrganizationIdentifier {
		return nil, http.StatusUnauthorized, "Not authorized, organization context changed"
	}
	if !u.IsActive {
		return nil, http.StatusForbidden, "Account is deactivated"
	}

	tc, err := g.tenants.Resolve(ctx, *u)
	switch {
	case err == nil:
	case errors.Is(err, tenant.ErrOrgMismatch):
		return nil, http.StatusUnauthorized, "Not authorized, organization context changed"
	case errors.Is(err, tenant.ErrNoOrganization):
		return nil, http.StatusForbidden, "Organization not found"
	case errors.Is(err, tenant.ErrOrgInactive):
		return nil, http.StatusForbidden, "Organization is not active"
	case errors.Is(err, tenant.ErrSubscriptionExpired):
		return nil, http.StatusForbidden, "Organization subscription has expired"
	default:
		g.log.Error("auth: tenant resolve failed", zap.Error(err), zap.String("user_id", id.Hex()))
		return nil, http.StatusInternalServerError, "Server error"
	}

	return &Principal{
		User:   *u,
		Roles:  roles.Of(u.Role, u.AccountRoles),
		Tenant: tc,
		Token: TokenContext{
			OrganizationID:         claims.OrganizationID,
			OrganizationIdentifier: claims.OrganizationIdentifier,
			LabID:                  claims.LabID,
			LabIdentifier:          claims.LabIdentifier,
			Kind:                   claims.Kind,
			Role:                   claims.Role,
		},
	}, 0, ""
}
