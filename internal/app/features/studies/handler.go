// internal/app/features/studies/handler.go
package studies

import (
	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	notestore "github.com/dalemusser/radhub/internal/app/store/notes"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	userstore "github.com/dalemusser/radhub/internal/app/store/users"
	"github.com/dalemusser/radhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Studies  *studystore.Store
	Notes    *notestore.Store
	Users    *userstore.Store
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Studies:  studystore.New(db),
		Notes:    notestore.New(db),
		Users:    userstore.New(db),
	}
}
