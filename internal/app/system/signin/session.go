package signin

import (
	"context"
	"errors"

	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/tokens"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Refresh reissues a token for an authenticated principal. The guard has
// already re-validated the user and organization; a super_admin keeps the
// organization context of the token being refreshed, and a lab token stays
// a lab token.
func (is *Issuer) Refresh(ctx context.Context, p *auth.Principal) (Session, error) {
	tc := p.Tenant
	if p.IsSuperAdmin() && p.Token.OrganizationID != "" && p.Token.OrganizationIdentifier != tc.OrganizationIdentifier {
		org, err := is.orgByID(ctx, p.Token.OrganizationID)
		if err != nil {
			return Session{}, err
		}
		tc = tenant.Context{OrganizationID: org.ID, OrganizationIdentifier: org.Identifier, Org: org}
	}

	extra := tokens.Claims{Kind: p.Token.Kind}
	if p.Token.Kind == tokens.KindLab {
		extra.LabID = p.Token.LabID
		extra.LabIdentifier = p.Token.LabIdentifier
	}
	return is.issue(p.User, tc, extra)
}

// SwitchOrganization reissues a super_admin's token in the context of
// another organization. The target must exist and be usable.
func (is *Issuer) SwitchOrganization(ctx context.Context, p *auth.Principal, orgID primitive.ObjectID) (Session, error) {
	if !p.IsSuperAdmin() {
		return Session{}, ErrNotSuperAdmin
	}
	org, err := is.orgs.GetByID(ctx, orgID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Session{}, tenant.ErrNoOrganization
	}
	if err != nil {
		return Session{}, err
	}
	if err := is.tenants.Check(org); err != nil {
		return Session{}, err
	}

	tc := tenant.Context{OrganizationID: org.ID, OrganizationIdentifier: org.Identifier, Org: &org}
	return is.issue(p.User, tc, tokens.Claims{})
}

// Profile loads the lab and doctor extras for a principal, as Login does.
func (is *Issuer) Profile(ctx context.Context, u models.User) (*models.Lab, *models.Doctor, error) {
	lab := is.linkedLab(ctx, u)
	d, err := is.doctors.GetByUserID(ctx, u.ID)
	switch {
	case err == nil:
		return lab, &d, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return lab, nil, nil
	default:
		return nil, nil, err
	}
}
