package errors

import (
	"net/http"

	"github.com/dalemusser/radhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// RenderBadRequest writes a 400 envelope.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Error(w, http.StatusBadRequest, msg, "")
}

// RenderUnauthorized writes a 401 envelope.
// If msg is empty, it defaults to "Not authorized".
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Not authorized"
	}
	respond.Error(w, http.StatusUnauthorized, msg, "")
}

// RenderForbidden writes a 403 envelope.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Error(w, http.StatusForbidden, msg, "")
}

// RenderNotFound writes a 404 envelope.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Error(w, http.StatusNotFound, msg, "")
}

// RenderConflict writes a 409 envelope.
func RenderConflict(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Error(w, http.StatusConflict, msg, "")
}

// RenderTooManyRequests writes a 429 envelope.
func RenderTooManyRequests(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Error(w, http.StatusTooManyRequests, msg, "")
}

// RenderServiceUnavailable writes a 503 envelope.
func RenderServiceUnavailable(w http.ResponseWriter, r *http.Request, msg string) {
	respond.Error(w, http.StatusServiceUnavailable, msg, "")
}

// RenderServerError writes a 500 envelope without detail.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Server error"
	}
	respond.Error(w, http.StatusInternalServerError, msg, "")
}

// ErrorLogger logs server-side failures before rendering them.
// With ShowDetail set (dev_errors), the raw error is added to the body.
type ErrorLogger struct {
	Log        *zap.Logger
	ShowDetail bool
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger, showDetail bool) *ErrorLogger {
	return &ErrorLogger{Log: logger, ShowDetail: showDetail}
}

// LogServerError logs err with logMsg and writes a 500 with userMsg.
func (el *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	el.Log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	if userMsg == "" {
		userMsg = "Server error"
	}
	el.write(w, http.StatusInternalServerError, userMsg, err)
}

// Handle writes the status and message Classify picks for err. Errors that
// classify as 5xx are logged under logMsg first.
func (el *ErrorLogger) Handle(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	status, msg := Classify(err)
	if status >= http.StatusInternalServerError {
		el.Log.Error(logMsg,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		el.write(w, status, msg, err)
		return
	}
	respond.Error(w, status, msg, "")
}

func (el *ErrorLogger) write(w http.ResponseWriter, status int, msg string, err error) {
	if el.ShowDetail && err != nil {
		respond.ErrorDetail(w, status, msg, "", err.Error())
		return
	}
	respond.Error(w, status, msg, "")
}
