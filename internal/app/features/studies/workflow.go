package studies

import (
	"errors"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type statusRequest struct {
	Status string `json:"status"`
	// ExpectedStatus is the status the client last saw. When empty the
	// stored status is used.
	ExpectedStatus string `json:"expectedStatus"`
	Note           string `json:"note"`
}

type assignRequest struct {
	AssignedTo string `json:"assignedTo"`
	Priority   string `json:"priority"`
	Note       string `json:"note"`
}

// readers of a study report; only they can be assigned a study.
var assignable = roles.NewSet(roles.Radiologist, roles.DoctorAccount)

var priorities = map[string]bool{"": true, "normal": true, "urgent": true, "emergency": true}

// HandleStatus handles POST /api/studies/{id}/status. The move is checked
// against the transition table with the caller's full role set, then
// written only if the study still has the status it was checked against.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "study")
	if !ok {
		return
	}
	var in statusRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	to := workflow.Status(normalize.Status(in.Status))
	if to == "" {
		apierrors.RenderBadRequest(w, r, "status is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change study status")
	defer cancel()

	st, err := h.Studies.GetByID(ctx, id, org)
	if err != nil {
		h.ErrLog.Handle(w, r, "load study failed", err)
		return
	}
	from := workflow.Status(st.WorkflowStatus)
	if in.ExpectedStatus != "" {
		from = workflow.Status(normalize.Status(in.ExpectedStatus))
	}
	if err := workflow.Check(from, to, p.Roles); err != nil {
		h.ErrLog.Handle(w, r, "workflow check failed", err)
		return
	}

	updated, err := h.Studies.Transition(ctx, studystore.Change{
		StudyID:                id,
		OrganizationIdentifier: org,
		From:                   from,
		To:                     to,
		By:                     p.User.ID,
		Role:                   p.User.Role,
		Note:                   in.Note,
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "status transition failed", err)
		return
	}

	h.AuditLog.StatusChanged(ctx, r, p.User.ID, id, org, string(from), string(to))
	respond.OK(w, http.StatusOK, respond.Body{"message": "Status updated", "study": newStudyView(updated)})
}

// HandleAssign handles POST /api/studies/{id}/assign. The assignee must be
// an active radiologist or doctor account of the same organization. The
// study moves to assigned_to_doctor in the same write as the assignment.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "study")
	if !ok {
		return
	}
	var in assignRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	assigneeID, ok := shared.ParseObjectID(w, r, in.AssignedTo, "assignee")
	if !ok {
		return
	}
	in.Priority = normalize.Status(in.Priority)
	if !priorities[in.Priority] {
		apierrors.RenderBadRequest(w, r, "Unknown priority")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assign study")
	defer cancel()

	assignee, err := h.Users.GetByIDInOrg(ctx, assigneeID, org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierrors.RenderBadRequest(w, r, "Assignee not found in this organization")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading assignee", err, "")
		return
	}
	if !assignee.IsActive || !roles.Of(assignee.Role, assignee.AccountRoles).Intersects(assignable) {
		apierrors.RenderBadRequest(w, r, "Assignee cannot report studies")
		return
	}

	st, err := h.Studies.GetByID(ctx, id, org)
	if err != nil {
		h.ErrLog.Handle(w, r, "load study failed", err)
		return
	}
	from := workflow.Status(st.WorkflowStatus)
	if err := workflow.Check(from, workflow.AssignedToDoctor, p.Roles); err != nil {
		h.ErrLog.Handle(w, r, "workflow check failed", err)
		return
	}

	now := time.Now().UTC()
	by := p.User.ID
	updated, err := h.Studies.Transition(ctx, studystore.Change{
		StudyID:                id,
		OrganizationIdentifier: org,
		From:                   from,
		To:                     workflow.AssignedToDoctor,
		By:                     by,
		Role:                   p.User.Role,
		Note:                   in.Note,
		At:                     now,
		Assignment: &models.Assignment{
			AssignedTo: &assigneeID,
			AssignedBy: &by,
			AssignedAt: &now,
			Priority:   in.Priority,
		},
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "assign study failed", err)
		return
	}

	h.AuditLog.StudyAssigned(ctx, r, p.User.ID, id, assigneeID, org)
	respond.OK(w, http.StatusOK, respond.Body{"message": "Study assigned", "study": newStudyView(updated)})
}
