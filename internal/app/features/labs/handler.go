// Package labs serves /api/admin/labs, the imaging sites of an
// organization.
package labs

import (
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	labstore "github.com/dalemusser/radhub/internal/app/store/labs"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Labs     *labstore.Store
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Labs:     labstore.New(db),
	}
}
