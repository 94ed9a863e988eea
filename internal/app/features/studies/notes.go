package studies

import (
	"context"
	"net/http"

	"github.com/dalemusser/radhub/internal/app/features/shared"
	"github.com/dalemusser/radhub/internal/app/system/auth"
	"github.com/dalemusser/radhub/internal/app/system/normalize"
	"github.com/dalemusser/radhub/internal/app/system/respond"
	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"github.com/dalemusser/radhub/internal/app/system/txn"
	"github.com/dalemusser/radhub/internal/domain/models"
)

type noteRequest struct {
	Text       string `json:"text"`
	Visibility string `json:"visibility"`
}

func authorOf(p *auth.Principal) models.NoteAuthor {
	return models.NoteAuthor{ID: p.User.ID, Name: p.User.FullName, Role: p.User.Role}
}

// HandleListNotes handles GET /api/studies/{id}/notes. Notes the caller
// may not read are left out.
func (h *Handler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "study")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list notes")
	defer cancel()

	list, err := h.Notes.ListVisible(ctx, id, org, p.User.ID, p.Roles)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing notes", err, "")
		return
	}
	out := make([]noteView, 0, len(list))
	for _, n := range list {
		out = append(out, newNoteView(n))
	}
	respond.OK(w, http.StatusOK, respond.Body{"data": out})
}

// HandleAddNote handles POST /api/studies/{id}/notes. The note and the
// study's notes counter commit together.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	id, ok := shared.ObjectIDParam(w, r, "id", "study")
	if !ok {
		return
	}
	var in noteRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add note")
	defer cancel()

	var saved models.StudyNote
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		saved, err = h.Notes.Add(ctx, models.StudyNote{
			StudyID:                id,
			OrganizationIdentifier: org,
			Author:                 authorOf(p),
			Text:                   in.Text,
			Visibility:             normalize.Status(in.Visibility),
		})
		return err
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "add note failed", err)
		return
	}
	respond.OK(w, http.StatusCreated, respond.Body{"note": newNoteView(saved)})
}

// HandleReply handles POST /api/studies/{id}/notes/{noteId}/replies.
func (h *Handler) HandleReply(w http.ResponseWriter, r *http.Request) {
	p, org, ok := shared.Tenant(w, r)
	if !ok {
		return
	}
	studyID, ok := shared.ObjectIDParam(w, r, "id", "study")
	if !ok {
		return
	}
	noteID, ok := shared.ObjectIDParam(w, r, "noteId", "note")
	if !ok {
		return
	}
	var in noteRequest
	if !shared.DecodeJSON(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reply to note")
	defer cancel()

	n, err := h.Notes.Reply(ctx, studyID, noteID, org, authorOf(p), p.Roles, in.Text)
	if err != nil {
		h.ErrLog.Handle(w, r, "reply failed", err)
		return
	}
	respond.OK(w, http.StatusOK, respond.Body{"note": newNoteView(n)})
}
