// cmd/api/errors.go
// This file contains all error-response helpers for the application.
package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aoideee/library-rentals/internal/rental"
)

// logError logs an internal error at ERROR level with the request method,
// URL, and request id for context.
func (app *applicationDependencies) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.String("request_id", requestIDFromContext(r.Context())),
	)
}

// errorResponse sends a JSON error envelope with the given status code and message.
// It is the low-level building block used by all the specific error helpers below.
func (app *applicationDependencies) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	app.writeError(w, r, status, envelope{"error": message})
}

// codedErrorResponse is errorResponse plus a stable machine-readable code,
// so clients can tell apart failures that share a status.
func (app *applicationDependencies) codedErrorResponse(w http.ResponseWriter, r *http.Request, status int, code string, message any) {
	app.writeError(w, r, status, envelope{"error": message, "code": code})
}

func (app *applicationDependencies) writeError(w http.ResponseWriter, r *http.Request, status int, data envelope) {
	err := app.writeJSON(w, status, data, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs a 500-level error and sends a generic message to the client.
func (app *applicationDependencies) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// notFoundResponse sends a 404 Not Found error.
func (app *applicationDependencies) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

// methodNotAllowedResponse sends a 405 Method Not Allowed error.
func (app *applicationDependencies) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "the " + r.Method + " method is not supported for this resource"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse sends a 400 Bad Request error with the error message from the caller.
func (app *applicationDependencies) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.codedErrorResponse(w, r, http.StatusBadRequest, "invalid_request", err.Error())
}

// failedValidationResponse sends a 422 Unprocessable Entity response containing
// the field-level validation errors collected by a Validator.
func (app *applicationDependencies) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.codedErrorResponse(w, r, http.StatusUnprocessableEntity, "invalid_request", errors)
}

// duplicateResponse sends a 409 Conflict when a unique key is already taken.
func (app *applicationDependencies) duplicateResponse(w http.ResponseWriter, r *http.Request, field, message string) {
	app.codedErrorResponse(w, r, http.StatusConflict, "duplicate", map[string]string{field: message})
}

// rateLimitExceededResponse sends a 429 Too Many Requests error.
func (app *applicationDependencies) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

// rentalErrorResponse maps an error from the reservation engine to its
// documented outward signal:
//
//	invalid request → 400/422 "invalid_request"
//	not found       → 404     "not_found"
//	unavailable     → 409     "unavailable"
//	conflict        → 409     "conflict"
//
// Anything else is an internal fault and is reported as a generic 500.
func (app *applicationDependencies) rentalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var verr *rental.ValidationError

	switch {
	case errors.As(err, &verr):
		app.failedValidationResponse(w, r, verr.Errors)
	case errors.Is(err, rental.ErrInvalidRequest):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, rental.ErrNotFound):
		app.codedErrorResponse(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, rental.ErrUnavailable):
		app.codedErrorResponse(w, r, http.StatusConflict, "unavailable", err.Error())
	case errors.Is(err, rental.ErrConflict):
		app.codedErrorResponse(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		app.serverErrorResponse(w, r, err)
	}
}
