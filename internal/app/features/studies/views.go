package studies

import (
	"time"

	"github.com/dalemusser/radhub/internal/app/system/workflow"
	"github.com/dalemusser/radhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type patientView struct {
	PatientID string `json:"patientId"`
	Name      string `json:"name"`
	Sex       string `json:"sex,omitempty"`
	Age       string `json:"age,omitempty"`
}

type assignmentView struct {
	AssignedTo string     `json:"assignedTo,omitempty"`
	AssignedBy string     `json:"assignedBy,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	Priority   string     `json:"priority,omitempty"`
}

type historyView struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changedBy"`
	Role      string    `json:"role"`
	Note      string    `json:"note,omitempty"`
	At        time.Time `json:"at"`
}

type studyView struct {
	ID               string         `json:"id"`
	StudyInstanceUID string         `json:"studyInstanceUid"`
	AccessionNumber  string         `json:"accessionNumber,omitempty"`
	Modality         string         `json:"modality,omitempty"`
	Description      string         `json:"description,omitempty"`
	Patient          patientView    `json:"patient"`
	WorkflowStatus   string         `json:"workflowStatus"`
	Bucket           string         `json:"bucket"`
	NextStatuses     []string       `json:"nextStatuses"`
	Assignment       assignmentView `json:"assignment"`
	NotesCount       int64          `json:"notesCount"`
	History          []historyView  `json:"history,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func newStudyView(s models.DicomStudy) studyView {
	status := workflow.Status(s.WorkflowStatus)
	next := workflow.Next(status)
	nextNames := make([]string, 0, len(next))
	for _, n := range next {
		nextNames = append(nextNames, n.String())
	}

	v := studyView{
		ID:               s.ID.Hex(),
		StudyInstanceUID: s.StudyInstanceUID,
		AccessionNumber:  s.AccessionNumber,
		Modality:         s.Modality,
		Description:      s.StudyDescription,
		Patient: patientView{
			PatientID: s.Patient.PatientID,
			Name:      s.Patient.Name,
			Sex:       s.Patient.Sex,
			Age:       s.Patient.Age,
		},
		WorkflowStatus: s.WorkflowStatus,
		Bucket:         s.CategoryTracking.Current,
		NextStatuses:   nextNames,
		Assignment: assignmentView{
			AssignedTo: hexOrEmpty(s.Assignment.AssignedTo),
			AssignedBy: hexOrEmpty(s.Assignment.AssignedBy),
			AssignedAt: s.Assignment.AssignedAt,
			Priority:   s.Assignment.Priority,
		},
		NotesCount: s.NotesCount,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	for _, c := range s.StatusHistory {
		v.History = append(v.History, historyView{
			From:      c.From,
			To:        c.To,
			ChangedBy: c.ChangedBy.Hex(),
			Role:      c.Role,
			Note:      c.Note,
			At:        c.At,
		})
	}
	return v
}

type replyView struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type noteView struct {
	ID         string      `json:"id"`
	AuthorID   string      `json:"authorId"`
	Author     string      `json:"author"`
	Role       string      `json:"role"`
	Text       string      `json:"text"`
	Visibility string      `json:"visibility"`
	Replies    []replyView `json:"replies"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func newNoteView(n models.StudyNote) noteView {
	v := noteView{
		ID:         n.ID.Hex(),
		AuthorID:   n.Author.ID.Hex(),
		Author:     n.Author.Name,
		Role:       n.Author.Role,
		Text:       n.Text,
		Visibility: n.Visibility,
		Replies:    make([]replyView, 0, len(n.Replies)),
		CreatedAt:  n.CreatedAt,
	}
	for _, r := range n.Replies {
		v.Replies = append(v.Replies, replyView{
			ID:        r.ID.Hex(),
			Author:    r.Author.Name,
			Role:      r.Author.Role,
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	return v
}
