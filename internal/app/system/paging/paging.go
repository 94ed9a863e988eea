// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSize is the page size when the request does not name one.
const DefaultSize = 50

// MaxSize caps the "limit" query parameter.
const MaxSize = 200

var (
	ErrBadLimit  = errors.New("limit must be a positive integer")
	ErrBadCursor = errors.New("cursor is not valid")
)

// Page is a newest-first keyset page request: Size rows whose _id is below
// After. Rows are ordered by _id descending, so ObjectID creation time
// doubles as the sort key.
type Page struct {
	Size  int
	After *primitive.ObjectID
}

// Parse reads "limit" and "after" from the query string. A limit above
// MaxSize is clamped.
func Parse(r *http.Request) (Page, error) {
	p := Page{Size: DefaultSize}

	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return Page{}, ErrBadLimit
		}
		if n > MaxSize {
			n = MaxSize
		}
		p.Size = n
	}

	if s := query.Get(r, "after"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil || id.IsZero() {
			return Page{}, ErrBadCursor
		}
		p.After = &id
	}
	return p, nil
}

// LimitPlusOne is the fetch size for look-ahead pagination: one extra
// row tells whether another page exists.
func (p Page) LimitPlusOne() int64 { return int64(p.size() + 1) }

// Window returns the _id condition for the filter, or nil on the first page.
func (p Page) Window() bson.M {
	if p.After == nil {
		return nil
	}
	return bson.M{"$lt": *p.After}
}

func (p Page) size() int {
	if p.Size < 1 {
		return DefaultSize
	}
	return p.Size
}

// Trim cuts rows fetched with LimitPlusOne down to the page and returns the
// cursor for the next page, empty when this is the last one.
func Trim[T any](p Page, rows *[]T, idFn func(T) primitive.ObjectID) string {
	size := p.size()
	if len(*rows) <= size {
		return ""
	}
	*rows = (*rows)[:size]
	return idFn((*rows)[size-1]).Hex()
}
