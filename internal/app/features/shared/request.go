// Package shared holds request helpers used by every API feature.
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/radhub/internal/app/features/errors"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst. On failure it writes a 400
// and returns false. An empty body decodes to the zero value.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apierrors.RenderBadRequest(w, r, "Request body too large")
			return false
		}
		apierrors.RenderBadRequest(w, r, "Invalid JSON body")
		return false
	}
	return true
}

// ObjectIDParam parses the chi URL parameter name as an ObjectID. On
// failure it writes a 400 naming what is invalid and returns false.
func ObjectIDParam(w http.ResponseWriter, r *http.Request, name, what string) (primitive.ObjectID, bool) {
	return ParseObjectID(w, r, chi.URLParam(r, name), what)
}

// ParseObjectID parses hex as an ObjectID, writing a 400 on failure.
func ParseObjectID(w http.ResponseWriter, r *http.Request, hex, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		apierrors.RenderBadRequest(w, r, "Invalid "+what+" id")
		return primitive.NilObjectID, false
	}
	return id, true
}
