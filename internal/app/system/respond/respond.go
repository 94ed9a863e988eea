// Package respond writes the JSON envelopes every API response uses:
//
//	{"success": true, ...fields}
//	{"success": false, "message": "...", "code": "...", "error": "..."}
package respond

import (
	"encoding/json"
	"net/http"
)

// Body holds the fields of a success envelope next to "success".
type Body map[string]any

// Failure is the error envelope. Error carries raw detail and is only set
// in development.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, b Body) {
	out := make(map[string]any, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out["success"] = true
	JSON(w, status, out)
}

// Error writes a failure envelope without detail.
func Error(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, Failure{Message: message, Code: code})
}

// ErrorDetail writes a failure envelope with raw detail.
func ErrorDetail(w http.ResponseWriter, status int, message, code, detail string) {
	JSON(w, status, Failure{Message: message, Code: code, Error: detail})
}
