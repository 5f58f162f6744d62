package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/yamdb/apperr"
)

type errorBody struct {
	Error  string            `json:"error"`
	Code   apperr.Kind       `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// WriteError writes err as an error body. Errors that are not *apperr.Error are
// reported as INTERNAL and their cause is only logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Wrap(apperr.KindInternal, apperr.KindInternal.DefaultMessage(), err)
	}
	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		ae = apperr.ErrInternal
	}
	WriteJSON(w, status, errorBody{Error: ae.Message, Code: ae.Kind, Fields: ae.Fields})
}
