// Package result defines the uniform operation envelope returned by the
// financial core's exposed operations: success with data, or a classified
// error, plus an optional batch summary.
package result

import (
	"net/http"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Summary reports the outcome counts of a batch operation.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Result is the envelope every exposed operation serializes to.
type Result struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

func OK(data any) *Result {
	return &Result{Success: true, Data: data}
}

func OKWithSummary(data any, s Summary) *Result {
	return &Result{Success: true, Data: data, Summary: &s}
}

// Err builds a failure envelope from a classified error. The code falls back
// to the error kind when no specific code was attached.
func Err(err error) *Result {
	code := db.CodeOf(err)
	if code == "" {
		code = db.Classify(err).String()
	}
	return &Result{Success: false, Error: err.Error(), Code: code}
}

// HTTPStatus maps an error's kind to the status the thin HTTP layer emits.
func HTTPStatus(err error) int {
	switch db.Classify(err) {
	case db.KindValidation:
		return http.StatusBadRequest
	case db.KindNotFound:
		return http.StatusNotFound
	case db.KindIntegrity:
		return http.StatusConflict
	case db.KindTransient, db.KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
