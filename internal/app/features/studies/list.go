package studies

import (
	"net/http"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/paging"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleList handles GET /api/studies?bucket=&mine=true&limit=&after=.
// nextCursor is empty on the last page.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}

	f := studystore.ListFilter{
		OrganizationIdentifier: org,
		Bucket:                 workflow.Bucket(normalize.QueryParam(r.URL.Query().Get("bucket"))),
	}
	if f.Bucket != "" && !f.Bucket.Valid() {
		apierrors.RenderBadRequest(w, r, "Unknown bucket")
		return
	}
	if r.URL.Query().Get("mine") == "true" {
		me := p.User.ID
		f.AssignedTo = &me
	}
	page, err := paging.Parse(r)
	if err != nil {
		apierrors.RenderBadRequest(w, r, err.Error())
		return
	}
	f.IDWindow = page.Window()
	f.Limit = page.LimitPlusOne()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list studies")
	defer cancel()

	list, err := h.Studies.List(ctx, f)
	if err != nil {
		h.ErrLog.Handle(w, r, "database error listing studies", err)
		return
	}
	next := paging.Trim(page, &list, func(s models.DicomStudy) primitive.ObjectID { return s.ID })

	out := make([]studyView, 0, len(list))
	for _, s := range list {
		out = append(out, newStudyView(s))
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": out, "nextCursor": next})
}

// HandleCounts handles GET /api/studies/counts.
func (h *Handler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	_, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "count studies")
	defer cancel()

	counts, err := h.Studies.CountByBucket(ctx, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting studies", err, "")
		return
	}
	var total int64
	out := make(map[string]int64, len(counts))
	for b, n := range counts {
		out[string(b)] = n
		total += n
	}
	respond.OK(w, http.StatusOK, respond.Body{"counts": out, "total": total})
}

// HandleGet handles GET /api/studies/{id}, history included.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	_, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "study")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get study")
	defer cancel()

	st, err := h.Studies.GetByID(ctx, id, org)
	if err != nil {
		h.ErrLog.Handle(w, r, "database error loading study", err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Body{"study": newStudyView(st)})
}
