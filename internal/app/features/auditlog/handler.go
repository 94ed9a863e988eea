// Package auditlog serves the audit event query API for administrators.
package auditlog

import (
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/store/audit"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Audit  *audit.Store
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *apierrors.ErrorLogger
}

// NewHandler constructs an audit log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:  audit.New(db),
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
