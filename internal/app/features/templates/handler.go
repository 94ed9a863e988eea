// internal/app/features/templates/handler.go
package templates

import (
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	templatestore "github.com/dalemusser/radhub/internal/app/store/templates"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log       *zap.Logger
	ErrLog    *apierrors.ErrorLogger
	AuditLog  *auditlog.Logger
	Templates *templatestore.Store
	Users     *userstore.Store
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		AuditLog:  auditLog,
		Templates: templatestore.New(db),
		Users:     userstore.New(db),
	}
}
