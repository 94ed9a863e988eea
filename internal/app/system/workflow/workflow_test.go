package workflow_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/radhub/internal/app/system/roles"
	"github.com/dalemusser/radhub/internal/app/system/workflow"
)

func TestBuckets_PartitionAllStatuses(t *testing.T) {
	seen := map[workflow.Status]workflow.Bucket{}
	for _, b := range workflow.Buckets {
		for _, m := range b.Members() {
			s := workflow.Status(m)
			if prev, dup := seen[s]; dup {
				t.Fatalf("%s in both %s and %s", s, prev, b)
			}
			seen[s] = b
		}
	}
	if len(seen) != 32 {
		t.Errorf("expected 32 statuses, got %d", len(seen))
	}
	if len(workflow.All()) != len(seen) {
		t.Errorf("All() = %d statuses, buckets hold %d", len(workflow.All()), len(seen))
	}
}

func TestStatus_Bucket(t *testing.T) {
	tests := []struct {
		status workflow.Status
		want   workflow.Bucket
	}{
		{workflow.NewStudyReceived, workflow.BucketPending},
		{workflow.AssignmentAccepted, workflow.BucketPending},
		{workflow.ReportDrafted, workflow.BucketInProgress},
		{workflow.NoActiveStudy, workflow.BucketInProgress},
		{workflow.EmergencyCase, workflow.BucketInProgress},
		{workflow.RevertToRadiologist, workflow.BucketCompleted},
		{workflow.Archived, workflow.BucketCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, ok := tt.status.Bucket()
			if !ok {
				t.Fatalf("%s not recognized", tt.status)
			}
			if got != tt.want {
				t.Errorf("Bucket() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatus_Unknown(t *testing.T) {
	if workflow.Status("shipped").Valid() {
		t.Error("unknown status reported valid")
	}
	if workflow.Bucket("later").Valid() {
		t.Error("unknown bucket reported valid")
	}
	if got := workflow.Bucket("later").Members(); len(got) != 0 {
		t.Errorf("unknown bucket members = %v", got)
	}
}

func TestMembers_ReturnsCopy(t *testing.T) {
	a := workflow.BucketPending.Members()
	a[0] = "mutated"
	b := workflow.BucketPending.Members()
	if b[0] == "mutated" {
		t.Error("Members leaked internal slice")
	}
}

func TestEveryStatusReachable(t *testing.T) {
	reachable := map[workflow.Status]bool{workflow.NewStudyReceived: true}
	for _, s := range workflow.All() {
		for _, n := range workflow.Next(s) {
			if !n.Valid() {
				t.Errorf("%s -> %q: unknown target", s, n)
			}
			reachable[n] = true
		}
	}
	for _, s := range workflow.All() {
		if !reachable[s] {
			t.Errorf("%s is unreachable", s)
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		from    workflow.Status
		to      workflow.Status
		acting  roles.Set
		wantErr error
	}{
		{"assignor assigns", workflow.PendingAssignment, workflow.AssignedToDoctor, roles.NewSet(roles.Assignor), nil},
		{"radiologist cannot assign", workflow.PendingAssignment, workflow.AssignedToDoctor, roles.NewSet(roles.Radiologist), workflow.ErrRoleNotAllowed},
		{"radiologist opens", workflow.AssignedToDoctor, workflow.DoctorOpenedReport, roles.NewSet(roles.Radiologist), nil},
		{"typist saves draft", workflow.ReportInProgress, workflow.DraftSaved, roles.NewSet(roles.Typist), nil},
		{"typist cannot finalize", workflow.ReportDrafted, workflow.ReportFinalized, roles.NewSet(roles.Typist), workflow.ErrRoleNotAllowed},
		{"verifier approves", workflow.VerificationInProgress, workflow.ReportVerified, roles.NewSet(roles.Verifier), nil},
		{"verifier rejects", workflow.VerificationInProgress, workflow.ReportRejected, roles.NewSet(roles.Verifier), nil},
		{"radiologist cannot verify", workflow.VerificationInProgress, workflow.ReportVerified, roles.NewSet(roles.Radiologist), workflow.ErrRoleNotAllowed},
		{"skip verification", workflow.VerificationPending, workflow.ReportVerified, roles.NewSet(roles.Verifier), workflow.ErrIllegalTransition},
		{"admin still follows edges", workflow.NewStudyReceived, workflow.ReportFinalized, roles.NewSet(roles.Admin), workflow.ErrIllegalTransition},
		{"super admin archives", workflow.ReportCompleted, workflow.Archived, roles.NewSet(roles.SuperAdmin), nil},
		{"archived is terminal", workflow.Archived, workflow.ReportInProgress, roles.NewSet(roles.SuperAdmin), workflow.ErrTerminal},
		{"unknown from", workflow.Status("bogus"), workflow.Archived, roles.NewSet(roles.Admin), workflow.ErrUnknownStatus},
		{"unknown to", workflow.ReportCompleted, workflow.Status("bogus"), roles.NewSet(roles.Admin), workflow.ErrUnknownStatus},
		{"empty role set", workflow.PendingAssignment, workflow.AssignedToDoctor, roles.NewSet(), workflow.ErrRoleNotAllowed},
		{"account role grants", workflow.PendingAssignment, workflow.AssignedToDoctor, roles.Of(roles.Radiologist, []string{roles.Assignor}), nil},
		{"lab staff raises urgency", workflow.HistoryPending, workflow.UrgentPriority, roles.NewSet(roles.LabStaff), nil},
		{"reprint reopens", workflow.ReprintRequested, workflow.ReportInProgress, roles.NewSet(roles.Radiologist), nil},
		{"rejected back to radiologist", workflow.ReportRejected, workflow.RevertToRadiologist, roles.NewSet(roles.Verifier), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := workflow.Check(tt.from, tt.to, tt.acting)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Check() error = %v", err)
				}
				if !workflow.CanTransition(tt.from, tt.to, tt.acting) {
					t.Error("CanTransition() = false, Check() allowed it")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Check() error = %v, want %v", err, tt.wantErr)
			}
			if workflow.CanTransition(tt.from, tt.to, tt.acting) {
				t.Error("CanTransition() = true, Check() rejected it")
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if !workflow.IsTerminal(workflow.Archived) {
		t.Error("archived should be terminal")
	}
	for _, s := range workflow.All() {
		if s != workflow.Archived && workflow.IsTerminal(s) {
			t.Errorf("%s unexpectedly terminal", s)
		}
	}
	if workflow.IsTerminal(workflow.Status("bogus")) {
		t.Error("unknown status reported terminal")
	}
}

func TestNext_ReturnsCopy(t *testing.T) {
	n := workflow.Next(workflow.PendingAssignment)
	n[0] = workflow.Archived
	if workflow.Next(workflow.PendingAssignment)[0] == workflow.Archived {
		t.Error("Next leaked internal slice")
	}
}
