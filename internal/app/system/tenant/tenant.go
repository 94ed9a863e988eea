// Package tenant resolves and validates the organization context a user
// acts in.
package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNoOrganization: a non-super_admin user has no organization, or
	// it no longer exists.
	ErrNoOrganization = errors.New("user has no organization")
	// ErrOrgMismatch: the user's stored identifier differs from the
	// organization record it points to.
	ErrOrgMismatch = errors.New("organization identifier mismatch")
	// ErrOrgInactive: organization status is not active.
	ErrOrgInactive = errors.New("organization is not active")
	// ErrSubscriptionExpired: now is strictly after the subscription end date.
	ErrSubscriptionExpired = errors.New("organization subscription has expired")
)

// OrgSource loads organizations by id, returning mongo.ErrNoDocuments when
// none exists.
type OrgSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

// Context is the resolved organization context. Org is nil for a
// super_admin without an organization.
type Context struct {
	OrganizationID         primitive.ObjectID
	OrganizationIdentifier string
	Org                    *models.Organization
}

// Resolver resolves the tenant of a user.
type Resolver struct {
	orgs OrgSource
	now  func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used for subscription expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver returns a Resolver reading organizations from orgs.
func NewResolver(orgs OrgSource, opts ...Option) *Resolver {
	r := &Resolver{orgs: orgs, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve loads u's organization and validates it.
//
// super_admin has global scope: an organization is optional and, when
// present, is returned without status or subscription checks. Every other
// role needs an active, unexpired organization whose identifier matches
// the one stored on the user.
func (r *Resolver) Resolve(ctx context.Context, u models.User) (Context, error) {
	superAdmin := u.Role == roles.SuperAdmin

	if u.OrganizationID == nil {
		if superAdmin {
			return Context{}, nil
		}
		return Context{}, ErrNoOrganization
	}

	org, err := r.orgs.GetByID(ctx, *u.OrganizationID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if superAdmin {
			return Context{}, nil
		}
		return Context{}, ErrNoOrganization
	}
	if err != nil {
		return Context{}, err
	}

	tc := Context{OrganizationID: org.ID, OrganizationIdentifier: org.Identifier, Org: &org}
	if superAdmin {
		return tc, nil
	}
	if u.OrganizationIdentifier != org.Identifier {
		return Context{}, ErrOrgMismatch
	}
	if err := r.Check(org); err != nil {
		return Context{}, err
	}
	return tc, nil
}

// Check validates org's status and subscription.
func (r *Resolver) Check(org models.Organization) error {
	if org.Status != models.OrgStatusActive {
		return ErrOrgInactive
	}
	if Expired(org.Subscription, r.now()) {
		return ErrSubscriptionExpired
	}
	return nil
}

// Expired reports whether s has lapsed at now. A subscription is still
// valid at the exact end instant.
func Expired(s models.Subscription, now time.Time) bool {
	return s.SubscriptionEndDate != nil && now.After(*s.SubscriptionEndDate)
}
