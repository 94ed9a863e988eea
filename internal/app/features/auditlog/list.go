package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/store/audit"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// HandleList handles GET /api/admin/audit with optional category,
// event_type, start_date, end_date (YYYY-MM-DD) and page filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	startDate := strings.TrimSpace(q.Get("start_date"))
	endDate := strings.TrimSpace(q.Get("end_date"))

	if category != "" && eventTypesForCategory(category) == nil {
		apierrors.RenderBadRequest(w, r, "Unknown category")
		return
	}

	page := 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}

	filter := audit.QueryFilter{
		OrganizationIdentifier: p.OrganizationIdentifier(),
		Category:               category,
		EventType:              eventType,
		Limit:                  pageSize,
		Offset:                 int64((page - 1) * pageSize),
	}
	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			apierrors.RenderBadRequest(w, r, "Invalid start_date")
			return
		}
		filter.StartTime = &t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			apierrors.RenderBadRequest(w, r, "Invalid end_date")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error querying audit events", err, "")
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting audit events", err, "")
		return
	}

	// Collect unique user ids for name resolution
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names, err := h.Users.NamesByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		names = nil
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:                     e.ID.Hex(),
			Timestamp:              e.Timestamp,
			OrganizationIdentifier: e.OrganizationIdentifier,
			Category:               e.Category,
			EventType:              e.EventType,
			IP:                     e.IP,
			Success:                e.Success,
			FailureReason:          e.FailureReason,
			Details:                e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = names[*e.UserID]
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	respond.OK(w, http.StatusOK, respond.Body{
		"data":       items,
		"total":      total,
		"page":       page,
		"totalPages": totalPages,
		"categories": allCategories(),
		"eventTypes": eventTypesForCategory(category),
	})
}

// HandleFailedLogins handles GET /api/admin/audit/failed-logins: failed
// sign-ins of the caller's organization over the last ?hours= (default 24).
func (h *Handler) HandleFailedLogins(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.RenderUnauthorized(w, r, "")
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 24*30 {
			apierrors.RenderBadRequest(w, r, "hours must be between 1 and 720")
			return
		}
		hours = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "failed logins")
	defer cancel()

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	events, err := h.Audit.GetFailedLogins(ctx, p.OrganizationIdentifier(), since, audit.DefaultQueryLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading failed logins", err, "")
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:                     e.ID.Hex(),
			Timestamp:              e.Timestamp,
			OrganizationIdentifier: e.OrganizationIdentifier,
			Category:               e.Category,
			EventType:              e.EventType,
			IP:                     e.IP,
			FailureReason:          e.FailureReason,
			Details:                e.Details,
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
		}
		items = append(items, item)
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": items, "hours": hours})
}
