package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"xfollowers/pkg/errors"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type startResponse struct {
	RunID string `json:"runId"`
}

type pollResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Fetched   *int   `json:"fetched,omitempty"`
	Pages     *int   `json:"pages,omitempty"`
	Total     *int   `json:"total,omitempty"`
	Tech      *int   `json:"tech,omitempty"`
	Medical   *int   `json:"medical,omitempty"`
	Other     *int   `json:"other,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	CSV       string `json:"csv,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, errorResponse{Error: message, Detail: detail})
}

func writeCSV(w http.ResponseWriter, csv, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

// statusFor maps a fetch failure to the status the caller sees. Upstream
// failures keep the provider's status.
func statusFor(err error) int {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Type {
	case errors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeUpstream:
		if e.Code >= 400 && e.Code < 600 {
			return e.Code
		}
		return http.StatusBadGateway
	case errors.ErrorTypeNetwork, errors.ErrorTypeProtocol:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func intPtr(n int) *int { return &n }
