// Package workflow defines the lifecycle vocabulary of a DicomStudy, the
// dashboard buckets the statuses roll up into, and the legal transitions
// between them.
package workflow

// Status is a study's workflow status.
type Status string

// Pending bucket.
const (
	NewStudyReceived    Status = "new_study_received"
	MetadataExtracted   Status = "metadata_extracted"
	HistoryPending      Status = "history_pending"
	HistoryCreated      Status = "history_created"
	HistoryVerified     Status = "history_verified"
	PendingAssignment   Status = "pending_assignment"
	AwaitingRadiologist Status = "awaiting_radiologist"
	AssignedToDoctor    Status = "assigned_to_doctor"
	AssignmentAccepted  Status = "assignment_accepted"
)

// In-progress bucket.
const (
	ReportDrafted               Status = "report_drafted"
	DraftSaved                  Status = "draft_saved"
	VerificationPending         Status = "verification_pending"
	VerificationInProgress      Status = "verification_in_progress"
	DoctorOpenedReport          Status = "doctor_opened_report"
	ReportInProgress            Status = "report_in_progress"
	PendingCompletion           Status = "pending_completion"
	ReportUploaded              Status = "report_uploaded"
	ReportDownloadedRadiologist Status = "report_downloaded_radiologist"
	ReportDownloaded            Status = "report_downloaded"
	ReportVerified              Status = "report_verified"
	ReportRejected              Status = "report_rejected"
	UrgentPriority              Status = "urgent_priority"
	EmergencyCase               Status = "emergency_case"
	ReprintRequested            Status = "reprint_requested"
	CorrectionNeeded            Status = "correction_needed"
	NoActiveStudy               Status = "no_active_study"
)

// Completed bucket.
const (
	ReportFinalized       Status = "report_finalized"
	FinalApproved         Status = "final_approved"
	RevertToRadiologist   Status = "revert_to_radiologist"
	ReportCompleted       Status = "report_completed"
	FinalReportDownloaded Status = "final_report_downloaded"
	Archived              Status = "archived"
)

// Bucket is a coarse dashboard category.
type Bucket string

const (
	BucketPending    Bucket = "pending"
	BucketInProgress Bucket = "inprogress"
	BucketCompleted  Bucket = "completed"
)

// Buckets lists the buckets in dashboard order.
var Buckets = []Bucket{BucketPending, BucketInProgress, BucketCompleted}

var bucketMembers = map[Bucket][]Status{
	BucketPending: {
		NewStudyReceived, MetadataExtracted, HistoryPending, HistoryCreated,
		HistoryVerified, PendingAssignment, AwaitingRadiologist, AssignedToDoctor,
		AssignmentAccepted,
	},
	BucketInProgress: {
		ReportDrafted, DraftSaved, VerificationPending, VerificationInProgress,
		DoctorOpenedReport, ReportInProgress, PendingCompletion, ReportUploaded,
		ReportDownloadedRadiologist, ReportDownloaded, ReportVerified, ReportRejected,
		UrgentPriority, EmergencyCase, ReprintRequested, CorrectionNeeded, NoActiveStudy,
	},
	BucketCompleted: {
		ReportFinalized, FinalApproved, RevertToRadiologist, ReportCompleted,
		FinalReportDownloaded, Archived,
	},
}

var bucketOf = func() map[Status]Bucket {
	m := make(map[Status]Bucket)
	for b, members := range bucketMembers {
		for _, s := range members {
			m[s] = b
		}
	}
	return m
}()

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := bucketOf[s]
	return ok
}

// Bucket returns the dashboard bucket of s and whether s is known.
func (s Status) Bucket() (Bucket, bool) {
	b, ok := bucketOf[s]
	return b, ok
}

func (s Status) String() string { return string(s) }

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	_, ok := bucketMembers[b]
	return ok
}

// Members returns the statuses in bucket b as strings, ready for a $in
// filter. The returned slice is a copy.
func (b Bucket) Members() []string {
	members := bucketMembers[b]
	out := make([]string, len(members))
	for i, s := range members {
		out[i] = string(s)
	}
	return out
}

// All returns every known status.
func All() []Status {
	out := make([]Status, 0, len(bucketOf))
	for _, b := range Buckets {
		out = append(out, bucketMembers[b]...)
	}
	return out
}
