package paging

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParse(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name      string
		query     string
		wantSize  int
		wantAfter bool
		wantErr   error
	}{
		{"defaults", "", DefaultSize, false, nil},
		{"explicit limit", "?limit=10", 10, false, nil},
		{"clamped limit", "?limit=5000", MaxSize, false, nil},
		{"zero limit", "?limit=0", 0, false, ErrBadLimit},
		{"junk limit", "?limit=abc", 0, false, ErrBadLimit},
		{"cursor", "?after=" + id.Hex(), DefaultSize, true, nil},
		{"bad cursor", "?after=nope", 0, false, ErrBadCursor},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(httptest.NewRequest("GET", "/studies"+tc.query, nil))
			if err != tc.wantErr {
				t.Fatalf("Parse() error = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if p.Size != tc.wantSize {
				t.Errorf("Size = %d, want %d", p.Size, tc.wantSize)
			}
			if (p.After != nil) != tc.wantAfter {
				t.Errorf("After = %v, wantAfter %v", p.After, tc.wantAfter)
			}
			if tc.wantAfter && *p.After != id {
				t.Errorf("After = %s, want %s", p.After.Hex(), id.Hex())
			}
		})
	}
}

func TestWindow(t *testing.T) {
	if w := (Page{}).Window(); w != nil {
		t.Errorf("first page window = %v, want nil", w)
	}
	id := primitive.NewObjectID()
	w := Page{After: &id}.Window()
	if w["$lt"] != id {
		t.Errorf("window = %v, want $lt %s", w, id.Hex())
	}
}

func TestTrim(t *testing.T) {
	ids := make([]primitive.ObjectID, 4)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}
	idFn := func(id primitive.ObjectID) primitive.ObjectID { return id }

	t.Run("more rows than the page", func(t *testing.T) {
		rows := append([]primitive.ObjectID(nil), ids...)
		next := Trim(Page{Size: 3}, &rows, idFn)
		if len(rows) != 3 {
			t.Fatalf("len = %d, want 3", len(rows))
		}
		if next != ids[2].Hex() {
			t.Errorf("next = %q, want %q", next, ids[2].Hex())
		}
	})

	t.Run("last page", func(t *testing.T) {
		rows := append([]primitive.ObjectID(nil), ids[:2]...)
		if next := Trim(Page{Size: 3}, &rows, idFn); next != "" {
			t.Errorf("next = %q, want empty", next)
		}
		if len(rows) != 2 {
			t.Errorf("len = %d, want 2", len(rows))
		}
	})
}

func TestLimitPlusOne(t *testing.T) {
	if got := (Page{Size: 20}).LimitPlusOne(); got != 21 {
		t.Errorf("LimitPlusOne() = %d, want 21", got)
	}
	if got := (Page{}).LimitPlusOne(); got != DefaultSize+1 {
		t.Errorf("zero page LimitPlusOne() = %d, want %d", got, DefaultSize+1)
	}
}
