package roles

import (
	"reflect"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, r := range All {
		if !IsValid(r) {
			t.Errorf("IsValid(%q) = false, want true", r)
		}
	}
	for _, r := range []string{"", "superadmin", "member", "ADMIN", "leader"} {
		if IsValid(r) {
			t.Errorf("IsValid(%q) = true, want false", r)
		}
	}
}

func TestAllHasFourteenRoles(t *testing.T) {
	if len(All) != 14 {
		t.Fatalf("len(All) = %d, want 14", len(All))
	}
}

func TestOf_UnionsPrimaryAndAccountRoles(t *testing.T) {
	got := Of("radiologist", []string{"Verifier", "typist", "bogus", ""})
	want := []string{"radiologist", "typist", "verifier"}
	if !reflect.DeepEqual(got.Slice(), want) {
		t.Errorf("Of().Slice() = %v, want %v", got.Slice(), want)
	}
}

func TestSet_HasAny(t *testing.T) {
	s := NewSet(Radiologist, Verifier)

	tests := []struct {
		name string
		want []string
		ok   bool
	}{
		{"primary matches", []string{Radiologist}, true},
		{"account role matches", []string{Admin, Verifier}, true},
		{"no overlap", []string{Admin, Owner}, false},
		{"empty allow list", nil, false},
		{"normalized input", []string{"VERIFIER"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.HasAny(tt.want...); got != tt.ok {
				t.Errorf("HasAny(%v) = %v, want %v", tt.want, got, tt.ok)
			}
		})
	}
}

func TestSet_Intersects(t *testing.T) {
	a := NewSet(Admin, Typist)
	if !a.Intersects(NewSet(Typist)) {
		t.Error("expected intersection on typist")
	}
	if a.Intersects(NewSet(Billing, Physician)) {
		t.Error("expected no intersection")
	}
	if a.Intersects(Set{}) {
		t.Error("empty set must not intersect")
	}
}
