// Package ingest receives studies from the PACS. Requests carry a shared
// API key instead of a user token.
package ingest

import (
	"context"
	"errors"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	labstore "github.com/dalemusser/radhub/internal/app/store/labs"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/app/system/tenant"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// APIKeyHeader carries the shared ingest secret.
const APIKeyHeader = "X-API-Key"

var (
	ErrUnknownOrganization = errors.New("unknown organization")
	ErrUnknownLab          = errors.New("unknown or inactive lab")
)

type Handler struct {
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Studies  *studystore.Store
	Orgs     *organizationstore.Store
	Labs     *labstore.Store
	Tenants  *tenant.Resolver
	APIKey   string
}

func NewHandler(db *mongo.Database, apiKey string, tenants *tenant.Resolver, auditLog *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Studies:  studystore.New(db),
		Orgs:     organizationstore.New(db),
		Labs:     labstore.New(db),
		Tenants:  tenants,
		APIKey:   apiKey,
	}
}

// target is where an ingested study lands.
type target struct {
	org models.Organization
	lab *models.Lab
}

// resolve loads the organization (which must be active and within its
// subscription) and, when labIdentifier is set, an active lab inside it.
func (h *Handler) resolve(ctx context.Context, orgIdentifier, labIdentifier string) (target, error) {
	org, err := h.Orgs.GetByIdentifier(ctx, orgIdentifier)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return target{}, ErrUnknownOrganization
	}
	if err != nil {
		return target{}, err
	}
	if err := h.Tenants.Check(org); err != nil {
		return target{}, err
	}

	t := target{org: org}
	if labIdentifier == "" {
		return t, nil
	}
	lab, err := h.Labs.GetByIdentifier(ctx, org.Identifier, labIdentifier)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !lab.IsActive) {
		return target{}, ErrUnknownLab
	}
	if err != nil {
		return target{}, err
	}
	t.lab = &lab
	return t, nil
}

func (t target) study(s models.DicomStudy) models.DicomStudy {
	s.OrganizationID = t.org.ID
	s.OrganizationIdentifier = t.org.Identifier
	if t.lab != nil {
		id := t.lab.ID
		s.SourceLabID = &id
	}
	return s
}
