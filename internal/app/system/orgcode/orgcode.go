// Package orgcode generates the short identifiers that name tenants.
package orgcode

import (
	"context"
	"errors"

	"github.com/gorilla/securecookie"
)

// Length is the number of letters in an identifier.
const Length = 4

// DefaultAttempts bounds how many candidates Generate tries.
const DefaultAttempts = 50

// ErrExhausted is returned when every attempted candidate was taken.
var ErrExhausted = errors.New("orgcode: no free identifier found")

// ExistsFunc reports whether an identifier is already in use.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces identifiers not reported by its ExistsFunc.
type Generator struct {
	exists   ExistsFunc
	attempts int
	random   func() (string, error)
}

// Option configures a Generator.
type Option func(*Generator)

// WithAttempts overrides DefaultAttempts.
func WithAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// WithSource replaces the random candidate source. Tests use it.
func WithSource(src func() (string, error)) Option {
	return func(g *Generator) {
		if src != nil {
			g.random = src
		}
	}
}

// New returns a Generator checking candidates against exists.
func New(exists ExistsFunc, opts ...Option) *Generator {
	g := &Generator{exists: exists, attempts: DefaultAttempts, random: Random}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns an identifier that exists reported free.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < g.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.random()
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Random returns Length uppercase ASCII letters drawn uniformly.
func Random() (string, error) {
	const letters = 26
	const limit = 256 - 256%letters // reject bytes that would bias the modulo

	out := make([]byte, 0, Length)
	for len(out) < Length {
		buf := securecookie.GenerateRandomKey(16)
		if buf == nil {
			return "", errors.New("orgcode: could not read random bytes")
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, 'A'+b%letters)
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether code has the identifier shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
