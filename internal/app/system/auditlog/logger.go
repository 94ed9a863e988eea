// Package auditlog records security and workflow events to the
// audit_events collection and to the structured log.
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/radhub/internal/app/store/audit"
	"github.com/dalemusser/radhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config selects a destination per event category. An empty value means
// All.
type Config struct {
	Auth     string
	Admin    string
	Workflow string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.OrganizationIdentifier != "" {
		fields = append(fields, zap.String("org", event.OrganizationIdentifier))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) destination(category string) string {
	var setting string
	switch category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryWorkflow:
		setting = l.config.Workflow
	}
	if setting == "" {
		return All
	}
	return setting
}

// Log records an audit event according to the category's destination.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	dest := l.destination(event.Category)
	if dest == Off {
		return
	}
	if dest == All || dest == Log {
		l.logToZap(event)
	}
	if dest == All || dest == DB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, ev audit.Event) audit.Event {
	if r != nil {
		ev.IP = ratelimit.ClientIP(r)
		ev.UserAgent = r.UserAgent()
	}
	return ev
}

// --- Authentication ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, org, provider string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLoginSuccess,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"provider": provider},
	}))
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": email},
	}))
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, org string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLoginFailedWrongPassword,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		FailureReason:          "wrong password",
	}))
}

func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, org string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLoginFailedUserDisabled,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		FailureReason:          "user disabled",
	}))
}

// LoginFailedOrganization logs a rejected login caused by the user's
// organization (missing, inactive or subscription lapsed).
func (l *Logger) LoginFailedOrganization(ctx context.Context, r *http.Request, userID primitive.ObjectID, org, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLoginFailedOrganization,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		FailureReason:          reason,
	}))
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": email},
	}))
}

func (l *Logger) LabLoginSuccess(ctx context.Context, r *http.Request, labID primitive.ObjectID, org string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLabLoginSuccess,
		UserID:                 &labID,
		OrganizationIdentifier: org,
		Success:                true,
	}))
}

func (l *Logger) LabLoginFailed(ctx context.Context, r *http.Request, org, labIdentifier, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLabLoginFailed,
		OrganizationIdentifier: org,
		FailureReason:          reason,
		Details:                map[string]string{"lab_identifier": labIdentifier},
	}))
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID, org string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventLogout,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		Success:                true,
	}))
}

func (l *Logger) TokenRefreshed(ctx context.Context, r *http.Request, userID primitive.ObjectID, org string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventTokenRefreshed,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		Success:                true,
	}))
}

// OrganizationSwitched logs a super_admin moving into another tenant.
func (l *Logger) OrganizationSwitched(ctx context.Context, r *http.Request, userID primitive.ObjectID, from, to string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAuth,
		EventType:              audit.EventOrganizationSwitched,
		UserID:                 &userID,
		OrganizationIdentifier: to,
		Success:                true,
		Details:                map[string]string{"from": from},
	}))
}

// --- Administration ---

func (l *Logger) OrgCreated(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, org, name string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAdmin,
		EventType:              audit.EventOrgCreated,
		ActorID:                &actorID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"org_id": orgID.Hex(), "name": name},
	}))
}

func (l *Logger) OrgDeactivated(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, org string, usersDeactivated int64) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAdmin,
		EventType:              audit.EventOrgDeactivated,
		ActorID:                &actorID,
		OrganizationIdentifier: org,
		Success:                true,
		Details: map[string]string{
			"org_id":            orgID.Hex(),
			"users_deactivated": strconv.FormatInt(usersDeactivated, 10),
		},
	}))
}

func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, org, role string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAdmin,
		EventType:              audit.EventUserCreated,
		ActorID:                &actorID,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"role": role},
	}))
}

// UserActiveChanged logs an account being enabled or disabled.
func (l *Logger) UserActiveChanged(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, org string, active bool) {
	ev := audit.EventUserDisabled
	if active {
		ev = audit.EventUserEnabled
	}
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAdmin,
		EventType:              ev,
		ActorID:                &actorID,
		UserID:                 &userID,
		OrganizationIdentifier: org,
		Success:                true,
	}))
}

func (l *Logger) LabCreated(ctx context.Context, r *http.Request, actorID, labID primitive.ObjectID, org, identifier string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAdmin,
		EventType:              audit.EventLabCreated,
		ActorID:                &actorID,
		UserID:                 &labID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"lab_identifier": identifier},
	}))
}

func (l *Logger) TemplateSaved(ctx context.Context, r *http.Request, actorID, templateID primitive.ObjectID, org, title string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryAdmin,
		EventType:              audit.EventTemplateSaved,
		ActorID:                &actorID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"template_id": templateID.Hex(), "title": title},
	}))
}

// --- Workflow ---

func (l *Logger) StudyIngested(ctx context.Context, r *http.Request, studyID primitive.ObjectID, org, studyInstanceUID string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryWorkflow,
		EventType:              audit.EventStudyIngested,
		UserID:                 &studyID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"study_instance_uid": studyInstanceUID},
	}))
}

func (l *Logger) StudyAssigned(ctx context.Context, r *http.Request, actorID, studyID, assignee primitive.ObjectID, org string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryWorkflow,
		EventType:              audit.EventStudyAssigned,
		ActorID:                &actorID,
		UserID:                 &studyID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"assigned_to": assignee.Hex()},
	}))
}

func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorID, studyID primitive.ObjectID, org, from, to string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:               audit.CategoryWorkflow,
		EventType:              audit.EventStatusChanged,
		ActorID:                &actorID,
		UserID:                 &studyID,
		OrganizationIdentifier: org,
		Success:                true,
		Details:                map[string]string{"from": from, "to": to},
	}))
}
