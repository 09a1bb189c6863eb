// cmd/api/handlers.go
// This file contains the HTTP request handlers for the reservations resource.
// Handlers decode and check the request shape; the lifecycle rules live in
// the rental engine and its errors are mapped by rentalErrorResponse.
package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aoideee/library-rentals/internal/data"
	"github.com/aoideee/library-rentals/internal/rental"
	"github.com/aoideee/library-rentals/internal/validator"
)

// createReservationHandler handles POST /v1/reservations.
// On success it responds 201 Created with the new reservation and a
// Location header pointing at it.
func (app *applicationDependencies) createReservationHandler(w http.ResponseWriter, r *http.Request) {
	var input rental.CreateRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.UserID > 0, "user_id", "must be provided")
	v.Check(input.BookExternalID > 0, "book_external_id", "must be provided")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	reservation, err := app.rentals.Create(r.Context(), input)
	if err != nil {
		app.rentalErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/reservations/%d", reservation.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"reservation": reservation}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// returnBookHandler handles POST /v1/reservations/:id/return.
func (app *applicationDependencies) returnBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var input rental.ReturnRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.rentals.Return(r.Context(), id, input)
	if err != nil {
		app.rentalErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reservation": reservation}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showReservationHandler handles GET /v1/reservations/:id.
func (app *applicationDependencies) showReservationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	reservation, err := app.rentals.Get(r.Context(), id)
	if err != nil {
		app.rentalErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reservation": reservation}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listReservationsHandler handles GET /v1/reservations.
// The optional query parameters narrow the list:
//
//	?status=active    only reservations in that status (case-insensitive)
//	?user_id=7        only reservations held by that user
//
// Both may be combined. Results are always in creation order.
func (app *applicationDependencies) listReservationsHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	v := validator.New()
	status := app.readString(qs, "status", "")
	userID := app.readInt(qs, "user_id", 0, v)
	v.Check(qs.Get("user_id") == "" || userID > 0, "user_id", "must be greater than zero")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	var (
		reservations []rental.View
		err          error
	)

	switch {
	case userID > 0:
		reservations, err = app.rentals.ListByUser(r.Context(), int64(userID))
		if err == nil && status != "" {
			reservations, err = filterByStatus(reservations, status)
		}
	case status != "":
		reservations, err = app.rentals.ListByStatus(r.Context(), data.Status(status))
	default:
		reservations, err = app.rentals.List(r.Context())
	}
	if err != nil {
		app.rentalErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reservations": reservations}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUserReservationsHandler handles GET /v1/users/:id/reservations.
// Unlike the user_id filter above, an unknown user is a 404.
func (app *applicationDependencies) listUserReservationsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	_, err = app.models.Users.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	reservations, err := app.rentals.ListByUser(r.Context(), id)
	if err != nil {
		app.rentalErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reservations": reservations}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func filterByStatus(views []rental.View, raw string) ([]rental.View, error) {
	status, ok := data.ParseStatus(raw)
	if !ok {
		return nil, &rental.ValidationError{Errors: map[string]string{"status": "must be ACTIVE, RETURNED or OVERDUE"}}
	}

	filtered := make([]rental.View, 0, len(views))
	for _, view := range views {
		if view.Status == status {
			filtered = append(filtered, view)
		}
	}
	return filtered, nil
}
