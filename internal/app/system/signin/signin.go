// Package signin turns verified credentials into session tokens.
//
// Every path (password login, lab login, refresh, organization switch)
// runs the same checks in the same order: credentials, account active,
// organization usable. A failed lookup and a wrong password return the
// same error so callers cannot tell which one happened.
package signin

import (
	"context"
	"errors"
	"time"

	doctorstore "github.com/dalemusser/radhub/internal/app/store/doctors"
	labstore "github.com/dalemusser/radhub/internal/app/store/labs"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/passwords"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/app/system/tokens"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is deactivated")
	ErrNotLabStaff        = errors.New("only lab staff can use the lab connector")
	ErrNoLab              = errors.New("no active lab is linked to this account")
	ErrNotSuperAdmin      = errors.New("only super_admin can switch organization")
)

// Failure wraps a rejected sign-in with the user it concerned, when known.
// errors.Is on a Failure matches its Err.
type Failure struct {
	Err  error
	User *models.User
}

func (f *Failure) Error() string { return f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

func fail(err error, u *models.User) error {
	return &Failure{Err: err, User: u}
}

// Session is a freshly issued token plus what the response needs about the
// signed-in subject.
type Session struct {
	Token      string
	ExpiresAt  time.Time
	User       models.User
	Org        *models.Organization
	Lab        *models.Lab
	Doctor     *models.Doctor
	RedirectTo string
}

// Issuer signs users in.
type Issuer struct {
	users   *userstore.Store
	orgs    *organizationstore.Store
	labs    *labstore.Store
	doctors *doctorstore.Store
	tenants *tenant.Resolver
	codec   *tokens.Codec
	ttl     time.Duration
	cost    int
	now     func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithBcryptCost sets the cost password hashes are created with, so an
// unknown email is rejected after the same amount of work as a wrong
// password.
func WithBcryptCost(cost int) Option {
	return func(is *Issuer) {
		if cost > 0 {
			is.cost = cost
		}
	}
}

// New builds an Issuer over db. Tokens live for ttl.
func New(db *mongo.Database, codec *tokens.Codec, tenants *tenant.Resolver, ttl time.Duration, opts ...Option) *Issuer {
	is := &Issuer{
		users:   userstore.New(db),
		orgs:    organizationstore.New(db),
		labs:    labstore.New(db),
		doctors: doctorstore.New(db),
		tenants: tenants,
		codec:   codec,
		ttl:     ttl,
		cost:    passwords.DefaultCost,
		now:     time.Now,
	}
	for _, o := range opts {
		o(is)
	}
	return is
}

// authenticate checks credentials and account state and resolves the
// tenant. The returned user is not yet marked logged in.
func (is *Issuer) authenticate(ctx context.Context, email, password string) (*models.User, tenant.Context, error) {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return nil, tenant.Context{}, ErrMissingCredentials
	}

	u, err := is.users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		passwords.VerifyDummy(password, is.cost)
		return nil, tenant.Context{}, fail(ErrInvalidCredentials, nil)
	}
	if err != nil {
		return nil, tenant.Context{}, err
	}
	if !passwords.Verify(password, u.PasswordHash) {
		return nil, tenant.Context{}, fail(ErrInvalidCredentials, u)
	}
	if !u.IsActive {
		return nil, tenant.Context{}, fail(ErrInactive, u)
	}

	tc, err := is.tenants.Resolve(ctx, *u)
	if err != nil {
		return nil, tenant.Context{}, fail(err, u)
	}
	return u, tc, nil
}

// Login signs a user in with email and password.
func (is *Issuer) Login(ctx context.Context, email, password string) (Session, error) {
	u, tc, err := is.authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	updated, err := is.users.RecordLogin(ctx, u.ID, is.now())
	if err != nil {
		return Session{}, err
	}

	s, err := is.issue(*updated, tc, tokens.Claims{})
	if err != nil {
		return Session{}, err
	}
	s.Lab = is.linkedLab(ctx, *updated)
	if updated.Role == roles.DoctorAccount {
		if d, err := is.doctors.GetByUserID(ctx, updated.ID); err == nil {
			s.Doctor = &d
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return Session{}, err
		}
	}
	return s, nil
}

// LabLogin signs in the desktop lab connector. On top of Login's checks the
// account must be lab_staff with an active lab in its own organization,
// and the token carries the lab's identity.
func (is *Issuer) LabLogin(ctx context.Context, email, password string) (Session, error) {
	u, tc, err := is.authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if u.Role != roles.LabStaff {
		return Session{}, fail(ErrNotLabStaff, u)
	}
	if tc.Org == nil {
		return Session{}, fail(tenant.ErrNoOrganization, u)
	}
	lab := is.linkedLab(ctx, *u)
	if lab == nil || !lab.IsActive || lab.OrganizationIdentifier != u.OrganizationIdentifier {
		return Session{}, fail(ErrNoLab, u)
	}

	updated, err := is.users.RecordLogin(ctx, u.ID, is.now())
	if err != nil {
		return Session{}, err
	}
	s, err := is.issue(*updated, tc, tokens.Claims{
		Kind:          tokens.KindLab,
		LabID:         lab.ID.Hex(),
		LabIdentifier: lab.Identifier,
	})
	if err != nil {
		return Session{}, err
	}
	s.Lab = lab
	return s, nil
}

func (is *Issuer) linkedLab(ctx context.Context, u models.User) *models.Lab {
	if u.LabID == nil {
		return nil
	}
	lab, err := is.labs.GetByID(ctx, *u.LabID)
	if err != nil {
		return nil
	}
	return &lab
}

// issue signs a token for u in organization context tc. extra supplies
// the lab fields and kind.
func (is *Issuer) issue(u models.User, tc tenant.Context, extra tokens.Claims) (Session, error) {
	c := extra
	c.UserID = u.ID.Hex()
	c.Role = u.Role
	if c.Kind == "" {
		c.Kind = tokens.KindUser
	}
	if tc.Org != nil {
		c.OrganizationID = tc.OrganizationID.Hex()
		c.OrganizationIdentifier = tc.OrganizationIdentifier
	}

	tok, err := is.codec.Issue(c, is.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:      tok,
		ExpiresAt:  is.now().Add(is.ttl),
		User:       u,
		Org:        tc.Org,
		RedirectTo: RedirectFor(u.Role),
	}, nil
}

// orgByID is a small helper for callers holding an id from a token.
func (is *Issuer) orgByID(ctx context.Context, hex string) (*models.Organization, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, tenant.ErrNoOrganization
	}
	org, err := is.orgs.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, tenant.ErrNoOrganization
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
