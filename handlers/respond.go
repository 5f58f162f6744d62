package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/middleware"
	"github.com/kevinaaaquil/yamdb/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	middleware.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// decodeJSON reads the request body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.KindValidation, "request body is empty")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid json", err)
	}
	return nil
}

// storeError translates store failures into API errors. resource names the
// missing object for ErrNotFound; duplicates become ALREADY_EXISTS on their field.
func storeError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, store.ErrDuplicate):
		field := store.DuplicateField(err)
		return apperr.Field(apperr.KindAlreadyExists, field, field+" already exists")
	case errors.Is(err, store.ErrConstraint):
		return apperr.Wrap(apperr.KindValidation, "value rejected by storage", err)
	}
	return apperr.Wrap(apperr.KindInternal, "storage failure", err)
}
