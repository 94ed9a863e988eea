package workflow

import (
	"errors"
	"fmt"

	"github.com/dalemusser/radhub/internal/app/system/roles"
)

var (
	// ErrUnknownStatus is returned for a status outside the vocabulary.
	ErrUnknownStatus = errors.New("workflow: unknown status")
	// ErrIllegalTransition is returned when to may not follow from.
	ErrIllegalTransition = errors.New("workflow: illegal transition")
	// ErrTerminal is returned when from has no outgoing edges.
	ErrTerminal = errors.New("workflow: status is terminal")
	// ErrRoleNotAllowed is returned when none of the acting roles may set to.
	ErrRoleNotAllowed = errors.New("workflow: role not allowed to set status")
)

var raisedPriority = []Status{UrgentPriority, EmergencyCase}

// edges lists, per status, the statuses that may follow it.
var edges = map[Status][]Status{
	// intake
	NewStudyReceived:  append([]Status{MetadataExtracted, PendingAssignment}, raisedPriority...),
	MetadataExtracted: append([]Status{HistoryPending, PendingAssignment}, raisedPriority...),
	HistoryPending:    append([]Status{HistoryCreated}, raisedPriority...),
	HistoryCreated:    append([]Status{HistoryVerified, HistoryPending}, raisedPriority...),
	HistoryVerified:   append([]Status{PendingAssignment}, raisedPriority...),

	UrgentPriority: {PendingAssignment, AssignedToDoctor, EmergencyCase},
	EmergencyCase:  {PendingAssignment, AssignedToDoctor},

	// assignment
	PendingAssignment:   append([]Status{AwaitingRadiologist, AssignedToDoctor, NoActiveStudy}, raisedPriority...),
	AwaitingRadiologist: append([]Status{AssignedToDoctor, PendingAssignment}, raisedPriority...),
	AssignedToDoctor:    append([]Status{AssignmentAccepted, DoctorOpenedReport, PendingAssignment}, raisedPriority...),
	AssignmentAccepted:  append([]Status{DoctorOpenedReport, PendingAssignment}, raisedPriority...),

	// reporting
	DoctorOpenedReport: {ReportInProgress, DraftSaved, AssignedToDoctor},
	ReportInProgress:   {DraftSaved, ReportDrafted, DoctorOpenedReport, ReportUploaded, PendingCompletion},
	DraftSaved:         {ReportInProgress, ReportDrafted},
	ReportDrafted:      {VerificationPending, ReportUploaded, ReportFinalized, ReportInProgress, PendingCompletion},
	PendingCompletion:  {ReportFinalized, ReportInProgress, VerificationPending},
	ReportUploaded:     {VerificationPending, ReportFinalized, ReportDownloadedRadiologist},

	ReportDownloadedRadiologist: {ReportInProgress, ReportUploaded},

	// verification
	VerificationPending:    {VerificationInProgress},
	VerificationInProgress: {ReportVerified, ReportRejected},
	ReportVerified:         {ReportFinalized},
	ReportRejected:         {RevertToRadiologist, CorrectionNeeded},
	RevertToRadiologist:    {ReportInProgress},
	CorrectionNeeded:       {ReportInProgress},

	// completion
	ReportFinalized:       {FinalApproved, ReportCompleted, ReportDownloaded, FinalReportDownloaded, ReprintRequested, Archived},
	FinalApproved:         {ReportCompleted, ReportDownloaded, FinalReportDownloaded, ReprintRequested, Archived},
	ReportCompleted:       {ReportDownloaded, FinalReportDownloaded, ReprintRequested, Archived},
	ReportDownloaded:      {FinalReportDownloaded, ReprintRequested, Archived},
	FinalReportDownloaded: {ReportDownloaded, ReprintRequested, Archived},
	ReprintRequested:      {ReportInProgress, ReportFinalized},

	NoActiveStudy: {NewStudyReceived, Archived},

	Archived: nil,
}

var (
	intakeRoles   = []string{roles.LabStaff, roles.Receptionist, roles.Assignor, roles.Admin, roles.Owner}
	assignRoles   = []string{roles.Assignor, roles.Admin, roles.Owner, roles.GroupID}
	reportRoles   = []string{roles.Radiologist, roles.DoctorAccount}
	draftRoles    = []string{roles.Radiologist, roles.DoctorAccount, roles.Typist}
	verifyRoles   = []string{roles.Verifier, roles.Admin}
	finalizeRoles = []string{roles.Radiologist, roles.DoctorAccount, roles.Verifier, roles.Admin}
	deliveryRoles = []string{roles.LabStaff, roles.Receptionist, roles.Admin, roles.Owner, roles.Physician, roles.Billing}
	priorityRoles = []string{roles.LabStaff, roles.Receptionist, roles.Assignor, roles.Admin, roles.Owner, roles.Physician}
	archiveRoles  = []string{roles.Admin, roles.Owner, roles.SuperAdmin}
	noActiveRoles = []string{roles.Admin, roles.SuperAdmin, roles.LabStaff}
	overrideRoles = roles.NewSet(roles.Admin, roles.SuperAdmin)
)

// setters lists, per target status, the roles that may move a study into it.
var setters = map[Status]roles.Set{
	NewStudyReceived:  roles.NewSet(noActiveRoles...),
	MetadataExtracted: roles.NewSet(intakeRoles...),
	HistoryPending:    roles.NewSet(intakeRoles...),
	HistoryCreated:    roles.NewSet(intakeRoles...),
	HistoryVerified:   roles.NewSet(intakeRoles...),
	PendingAssignment: roles.NewSet(append(intakeRoles, assignRoles...)...),

	UrgentPriority: roles.NewSet(priorityRoles...),
	EmergencyCase:  roles.NewSet(priorityRoles...),

	AwaitingRadiologist: roles.NewSet(assignRoles...),
	AssignedToDoctor:    roles.NewSet(assignRoles...),
	AssignmentAccepted:  roles.NewSet(reportRoles...),

	DoctorOpenedReport:          roles.NewSet(reportRoles...),
	ReportInProgress:            roles.NewSet(draftRoles...),
	DraftSaved:                  roles.NewSet(draftRoles...),
	ReportDrafted:               roles.NewSet(draftRoles...),
	PendingCompletion:           roles.NewSet(draftRoles...),
	ReportUploaded:              roles.NewSet(draftRoles...),
	ReportDownloadedRadiologist: roles.NewSet(reportRoles...),

	VerificationPending:    roles.NewSet(finalizeRoles...),
	VerificationInProgress: roles.NewSet(verifyRoles...),
	ReportVerified:         roles.NewSet(verifyRoles...),
	ReportRejected:         roles.NewSet(verifyRoles...),
	RevertToRadiologist:    roles.NewSet(verifyRoles...),
	CorrectionNeeded:       roles.NewSet(verifyRoles...),

	ReportFinalized:       roles.NewSet(finalizeRoles...),
	FinalApproved:         roles.NewSet(verifyRoles...),
	ReportCompleted:       roles.NewSet(finalizeRoles...),
	ReportDownloaded:      roles.NewSet(deliveryRoles...),
	FinalReportDownloaded: roles.NewSet(deliveryRoles...),
	ReprintRequested:      roles.NewSet(deliveryRoles...),

	NoActiveStudy: roles.NewSet(noActiveRoles...),
	Archived:      roles.NewSet(archiveRoles...),
}

// Next returns the statuses that may legally follow from, ignoring roles.
func Next(from Status) []Status {
	next := edges[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no status may follow s.
func IsTerminal(s Status) bool {
	return s.Valid() && len(edges[s]) == 0
}

func hasEdge(from, to Status) bool {
	for _, n := range edges[from] {
		if n == to {
			return true
		}
	}
	return false
}

// CanSet reports whether any of acting may move a study into to.
// admin and super_admin may set every status.
func CanSet(to Status, acting roles.Set) bool {
	if acting.Intersects(overrideRoles) {
		return true
	}
	allowed, ok := setters[to]
	return ok && acting.Intersects(allowed)
}

// CanTransition reports whether a study in from may be moved to to by an
// actor holding the acting roles.
func CanTransition(from, to Status, acting roles.Set) bool {
	return Check(from, to, acting) == nil
}

// Check is CanTransition with a reason. The returned error wraps one of
// ErrUnknownStatus, ErrTerminal, ErrIllegalTransition or ErrRoleNotAllowed.
func Check(from, to Status, acting roles.Set) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if IsTerminal(from) {
		return fmt.Errorf("%w: %s", ErrTerminal, from)
	}
	if !hasEdge(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	if !CanSet(to, acting) {
		return fmt.Errorf("%w: %s", ErrRoleNotAllowed, to)
	}
	return nil
}
