package ingest

import (
	"errors"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/dalemusser/radhub/internal/app/features/ingest/csvutil"
	"github.com/dalemusser/radhub/internal/app/features/shared"
	studystore "github.com/dalemusser/radhub/internal/app/store/studies"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.uber.org/zap"
)

type patientInput struct {
	PatientID string `json:"patientId"`
	Name      string `json:"name"`
	Sex       string `json:"sex"`
	Age       string `json:"age"`
}

type studyRequest struct {
	OrganizationIdentifier string       `json:"organizationIdentifier"`
	LabIdentifier          string       `json:"labIdentifier"`
	StudyInstanceUID       string       `json:"studyInstanceUid"`
	OrthancStudyID         string       `json:"orthancStudyId"`
	AccessionNumber        string       `json:"accessionNumber"`
	Modality               string       `json:"modality"`
	StudyDescription       string       `json:"studyDescription"`
	Patient                patientInput `json:"patient"`
}

// handleResolveError writes the response for a failed resolve.
func (h *Handler) handleResolveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnknownOrganization) || errors.Is(err, ErrUnknownLab) {
		apierrors.RenderBadRequest(w, r, strings.ToUpper(err.Error()[:1])+err.Error()[1:])
		return
	}
	h.ErrLog.Handle(w, r, "resolve ingest target failed", err)
}

// HandleStudy handles POST /api/ingest/studies. A study the organization
// already has is acknowledged with 200 and left untouched, so the PACS
// can safely resend.
func (h *Handler) HandleStudy(w http.ResponseWriter, r *http.Request) {
	var in studyRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.OrganizationIdentifier) == "" || strings.TrimSpace(in.StudyInstanceUID) == "" {
		apierrors.RenderBadRequest(w, r, "organizationIdentifier and studyInstanceUid are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ingest study")
	defer cancel()

	t, err := h.resolve(ctx, in.OrganizationIdentifier, in.LabIdentifier)
	if err != nil {
		h.handleResolveError(w, r, err)
		return
	}

	st, err := h.Studies.Create(ctx, t.study(models.DicomStudy{
		StudyInstanceUID: in.StudyInstanceUID,
		OrthancStudyID:   strings.TrimSpace(in.OrthancStudyID),
		AccessionNumber:  strings.TrimSpace(in.AccessionNumber),
		Modality:         strings.ToUpper(strings.TrimSpace(in.Modality)),
		StudyDescription: strings.TrimSpace(in.StudyDescription),
		Patient: models.PatientRef{
			PatientID: strings.TrimSpace(in.Patient.PatientID),
			Name:      strings.TrimSpace(in.Patient.Name),
			Sex:       strings.ToUpper(strings.TrimSpace(in.Patient.Sex)),
			Age:       strings.TrimSpace(in.Patient.Age),
		},
	}))
	if errors.Is(err, studystore.ErrDuplicateStudy) {
		respond.OK(w, http.StatusOK, respond.Body{"message": "Study already received", "duplicate": true})
		return
	}
	if err != nil {
		h.ErrLog.Handle(w, r, "ingest study failed", err)
		return
	}

	h.AuditLog.StudyIngested(ctx, r, st.ID, t.org.Identifier, st.StudyInstanceUID)
	respond.OK(w, http.StatusCreated, respond.Body{
		"message": "Study received",
		"study": respond.Body{
			"id":               st.ID.Hex(),
			"studyInstanceUid": st.StudyInstanceUID,
			"workflowStatus":   st.WorkflowStatus,
		},
	})
}

// HandleBatch handles POST /api/ingest/studies/batch?organization=&lab=
// with a CSV manifest body. Any row error rejects the whole file; studies
// already on file are counted as skipped.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgIdent := strings.TrimSpace(q.Get("organization"))
	if orgIdent == "" {
		apierrors.RenderBadRequest(w, r, "organization is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	parsed, err := csvutil.ParseStudiesCSV(r.Body, csvutil.ParseOptions{MaxRows: csvutil.MaxRows})
	if errors.Is(err, csvutil.ErrTooManyRows) {
		apierrors.RenderBadRequest(w, r, "Manifest has too many rows")
		return
	}
	if err != nil {
		apierrors.RenderBadRequest(w, r, "Could not read manifest")
		return
	}
	if parsed.HasErrors() {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"message": "Manifest contains errors",
			"errors":  parsed.Errors,
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "ingest batch")
	defer cancel()

	t, err := h.resolve(ctx, orgIdent, strings.TrimSpace(q.Get("lab")))
	if err != nil {
		h.handleResolveError(w, r, err)
		return
	}

	var created, skipped int
	for _, row := range parsed.Rows {
		st, err := h.Studies.Create(ctx, t.study(models.DicomStudy{
			StudyInstanceUID: row.StudyInstanceUID,
			AccessionNumber:  row.AccessionNumber,
			Modality:         row.Modality,
			StudyDescription: row.StudyDescription,
			Patient: models.PatientRef{
				PatientID: row.PatientID,
				Name:      row.PatientName,
				Sex:       row.PatientSex,
				Age:       row.PatientAge,
			},
		}))
		if errors.Is(err, studystore.ErrDuplicateStudy) {
			skipped++
			continue
		}
		if err != nil {
			h.Log.Error("batch ingest stopped",
				zap.Error(err),
				zap.String("org", t.org.Identifier),
				zap.Int("created", created))
			h.ErrLog.Handle(w, r, "ingest batch failed", err)
			return
		}
		created++
		h.AuditLog.StudyIngested(ctx, r, st.ID, t.org.Identifier, st.StudyInstanceUID)
	}

	h.Log.Info("batch ingest complete",
		zap.String("org", t.org.Identifier),
		zap.Int("created", created),
		zap.Int("skipped", skipped))
	respond.OK(w, http.StatusOK, respond.Body{"created": created, "skipped": skipped})
}
