// Package superadmin serves the /api/superadmin endpoints that manage
// organizations.
package superadmin

import (
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	doctorstore "github.com/dalemusser/radhub/internal/app/store/doctors"
	labstore "github.com/dalemusser/radhub/internal/app/store/labs"
	organizationstore "github.com/dalemusser/radhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"github.com/dalemusser/radhub/internal/app/system/orgcode"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *apierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Orgs       *organizationstore.Store
	Users      *userstore.Store
	Labs       *labstore.Store
	Doctors    *doctorstore.Store
	Codes      *orgcode.Generator
	BcryptCost int
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, errLog *apierrors.ErrorLogger, bcryptCost int, logger *zap.Logger) *Handler {
	orgs := organizationstore.New(db)
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   auditLog,
		Orgs:       orgs,
		Users:      userstore.New(db),
		Labs:       labstore.New(db),
		Doctors:    doctorstore.New(db),
		Codes:      orgcode.New(orgs.IdentifierExists),
		BcryptCost: bcryptCost,
	}
}
