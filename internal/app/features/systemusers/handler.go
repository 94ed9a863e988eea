// Package systemusers serves /api/admin/users: organization admins create,
// list and enable or disable the accounts of their tenant.
package systemusers

import (
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	doctorstore "github.com/dalemusser/radhub/internal/app/store/doctors"
	labstore "github.com/dalemusser/radhub/internal/app/store/labs"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *apierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Users      *userstore.Store
	Labs       *labstore.Store
	Doctors    *doctorstore.Store
	BcryptCost int
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, errLog *apierrors.ErrorLogger, bcryptCost int, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   auditLog,
		Users:      userstore.New(db),
		Labs:       labstore.New(db),
		Doctors:    doctorstore.New(db),
		BcryptCost: bcryptCost,
	}
}
