// Package passwords hashes and verifies credentials and compares static
// secrets.
package passwords

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 12

var (
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrTooLong       = errors.New("password exceeds 72 bytes")
)

// Hash returns the bcrypt hash of plain. A cost outside bcrypt's bounds
// falls back to DefaultCost.
func Hash(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	if len(plain) > 72 {
		return "", ErrTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plain matches storedHash. Any malformed hash is a
// mismatch.
func Verify(plain, storedHash string) bool {
	if plain == "" || storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)) == nil
}

var (
	dummyMu     sync.Mutex
	dummyHashes = map[int][]byte{}
)

// dummyHash returns a hash at cost, built on first use, compared against
// when no account exists so that a missing user costs about as much as a
// wrong password hashed at the same cost.
func dummyHash(cost int) []byte {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummyMu.Lock()
	defer dummyMu.Unlock()
	if h, ok := dummyHashes[cost]; ok {
		return h
	}
	h, err := bcrypt.GenerateFromPassword([]byte("radhub-timing-equalizer"), cost)
	if err != nil {
		panic(err)
	}
	dummyHashes[cost] = h
	return h
}

// VerifyDummy burns one bcrypt comparison at cost and always returns
// false. Pass the cost stored hashes are created with.
func VerifyDummy(plain string, cost int) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash(cost), []byte(plain))
	return false
}

// SecretsEqual compares two static secrets (API keys) in constant time.
// An empty expected secret never matches.
func SecretsEqual(expected, given string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

// Temporary returns a random password for admin-issued credentials.
func Temporary() (string, error) {
	key := securecookie.GenerateRandomKey(12)
	if key == nil {
		return "", errors.New("could not read random bytes")
	}
	s := base64.RawURLEncoding.EncodeToString(key)
	return strings.NewReplacer("-", "x", "_", "y").Replace(s), nil
}
