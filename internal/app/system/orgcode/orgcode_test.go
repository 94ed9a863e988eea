package orgcode_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/radhub/internal/app/system/orgcode"
)

func TestRandom_Shape(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := orgcode.Random()
		if err != nil {
			t.Fatalf("Random() error = %v", err)
		}
		if !orgcode.Valid(code) {
			t.Fatalf("Random() = %q, not a valid identifier", code)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABCD", true},
		{"abcd", false},
		{"ABC", false},
		{"ABCDE", false},
		{"AB1D", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := orgcode.Valid(tt.code); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestGenerate_NeverReturnsExisting(t *testing.T) {
	existing := map[string]bool{}
	exists := func(_ context.Context, code string) (bool, error) {
		return existing[code], nil
	}
	gen := orgcode.New(exists)

	for i := 0; i < 300; i++ {
		code, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if existing[code] {
			t.Fatalf("Generate() returned existing identifier %q", code)
		}
		existing[code] = true
	}
}

func TestGenerate_SkipsTaken(t *testing.T) {
	seq := []string{"AAAA", "BBBB", "CCCC"}
	i := 0
	src := func() (string, error) {
		c := seq[i%len(seq)]
		i++
		return c, nil
	}
	taken := map[string]bool{"AAAA": true, "BBBB": true}
	gen := orgcode.New(func(_ context.Context, c string) (bool, error) { return taken[c], nil }, orgcode.WithSource(src))

	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if code != "CCCC" {
		t.Errorf("Generate() = %q, want CCCC", code)
	}
}

func TestGenerate_Exhausted(t *testing.T) {
	calls := 0
	gen := orgcode.New(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}, orgcode.WithAttempts(5))

	if _, err := gen.Generate(context.Background()); !errors.Is(err, orgcode.ErrExhausted) {
		t.Fatalf("Generate() error = %v, want ErrExhausted", err)
	}
	if calls != 5 {
		t.Errorf("exists called %d times, want 5", calls)
	}
}

func TestGenerate_PropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	gen := orgcode.New(func(context.Context, string) (bool, error) { return false, boom })
	if _, err := gen.Generate(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Generate() error = %v, want %v", err, boom)
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := orgcode.New(func(context.Context, string) (bool, error) { return false, nil })
	if _, err := gen.Generate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
