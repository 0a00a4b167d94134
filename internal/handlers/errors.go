package handlers

import (
	"errors"
	"net/http"

	"github.com/BradenHooton/denuncias/internal/models"
	pkghttp "github.com/BradenHooton/denuncias/pkg/http"
	"github.com/google/uuid"
)

// writeServiceError maps a service error onto the JSON error envelope.
// Anything unrecognized is reported as a generic 500.
func writeServiceError(w http.ResponseWriter, err error, notFound string) {
	if ve, ok := models.AsValidationError(err); ok {
		writeValidationError(w, ve)
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, notFound)
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func writeValidationError(w http.ResponseWriter, ve *models.ValidationError) {
	fields := make([]pkghttp.FieldError, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, pkghttp.FieldError{Field: f.Field, Message: f.Message})
	}
	pkghttp.WriteValidationError(w, fields)
}

// writeDecodeOrValidationError reports a request body that failed to decode or validate
func writeDecodeOrValidationError(w http.ResponseWriter, err error) {
	if ve, ok := models.AsValidationError(err); ok {
		writeValidationError(w, ve)
		return
	}
	pkghttp.WriteBadRequest(w, err.Error())
}

// validID reports whether id is a well-formed UUID. Malformed ids are treated
// as absent rather than as bad input.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
