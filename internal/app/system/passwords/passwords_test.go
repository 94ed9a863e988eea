package passwords

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerify(t *testing.T) {
	h, err := Hash("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !Verify("correct horse", h) {
		t.Error("Verify with the right password returned false")
	}
	if Verify("wrong horse", h) {
		t.Error("Verify with a wrong password returned true")
	}
}

func TestHash_Salted(t *testing.T) {
	a, _ := Hash("same", bcrypt.MinCost)
	b, _ := Hash("same", bcrypt.MinCost)
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
}

func TestHash_Errors(t *testing.T) {
	if _, err := Hash("", bcrypt.MinCost); err != ErrEmptyPassword {
		t.Errorf("Hash(\"\") error = %v, want ErrEmptyPassword", err)
	}
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := Hash(string(long), bcrypt.MinCost); err != ErrTooLong {
		t.Errorf("Hash(73 bytes) error = %v, want ErrTooLong", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		plain string
		hash  string
	}{
		{"empty hash", "x", ""},
		{"empty password", "", "$2a$04$abcdefghijklmnopqrstuu"},
		{"not a bcrypt hash", "x", "plaintext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.plain, tt.hash) {
				t.Error("expected false")
			}
		})
	}
}

func TestVerifyDummy(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 1, 0, 99} {
		if VerifyDummy("radhub-timing-equalizer", cost) {
			t.Errorf("VerifyDummy(cost %d) must always be false", cost)
		}
	}
}

func TestDummyHash_MatchesConfiguredCost(t *testing.T) {
	tests := []struct {
		cost, want int
	}{
		{bcrypt.MinCost, bcrypt.MinCost},
		{bcrypt.MinCost + 1, bcrypt.MinCost + 1},
		{0, DefaultCost},
		{bcrypt.MaxCost + 1, DefaultCost},
	}
	for _, tt := range tests {
		got, err := bcrypt.Cost(dummyHash(tt.cost))
		if err != nil {
			t.Fatalf("bcrypt.Cost(%d): %v", tt.cost, err)
		}
		if got != tt.want {
			t.Errorf("dummyHash(%d) cost = %d, want %d", tt.cost, got, tt.want)
		}
	}
	a, b := dummyHash(bcrypt.MinCost), dummyHash(bcrypt.MinCost)
	if string(a) != string(b) {
		t.Error("dummyHash should be built once per cost")
	}
}

func TestSecretsEqual(t *testing.T) {
	tests := []struct {
		expected, given string
		want            bool
	}{
		{"key-123", "key-123", true},
		{"key-123", "key-124", false},
		{"key-123", "key-12", false},
		{"", "", false},
		{"", "anything", false},
	}
	for _, tt := range tests {
		if got := SecretsEqual(tt.expected, tt.given); got != tt.want {
			t.Errorf("SecretsEqual(%q, %q) = %v, want %v", tt.expected, tt.given, got, tt.want)
		}
	}
}

func TestTemporary(t *testing.T) {
	a, err := Temporary()
	if err != nil {
		t.Fatalf("Temporary: %v", err)
	}
	b, _ := Temporary()
	if len(a) != 16 {
		t.Errorf("len = %d, want 16", len(a))
	}
	if a == b {
		t.Error("two temporary passwords must differ")
	}
}
