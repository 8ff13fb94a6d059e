package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ai-ops-scorecard/internal/domain"
)

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: errorCode(err), Message: msg}
	var verr ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// errorCode maps domain errors to stable codes clients can switch on.
func errorCode(err error) string {
	var verr ValidationError
	switch {
	case err == nil:
		return "unknown"
	case errors.As(err, &verr):
		return "validation_failed"
	case errors.Is(err, domain.ErrInvalidScore):
		return "invalid_score"
	case errors.Is(err, domain.ErrInvalidSectionScore):
		return "invalid_section_score"
	case errors.Is(err, domain.ErrUnexpectedScreen):
		return "unexpected_screen"
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionClosed):
		return "session_unavailable"
	case errors.Is(err, domain.ErrCatalogNotFound), errors.Is(err, domain.ErrInvalidCatalog):
		return "catalog_unavailable"
	}
	return "internal"
}
