// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → requestID → rateLimit → router
//
// Current endpoints:
//
//	GET    /v1/healthcheck                 – liveness and version
//	POST   /v1/reservations                – reserve a book
//	GET    /v1/reservations                – list reservations (?status=, ?user_id=)
//	GET    /v1/reservations/:id            – retrieve one reservation
//	POST   /v1/reservations/:id/return     – return the book, settling any late fee
//	POST   /v1/books                       – add a book with its stock
//	GET    /v1/books                       – list books (paginated)
//	GET    /v1/books/:id                   – retrieve a book by external id
//	POST   /v1/users                       – register a user
//	GET    /v1/users/:id                   – retrieve a user
//	GET    /v1/users/:id/reservations      – reservations held by a user
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodPost, "/v1/reservations", app.createReservationHandler)
	router.HandlerFunc(http.MethodGet, "/v1/reservations", app.listReservationsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/reservations/:id", app.showReservationHandler)
	router.HandlerFunc(http.MethodPost, "/v1/reservations/:id/return", app.returnBookHandler)

	router.HandlerFunc(http.MethodPost, "/v1/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.showBookHandler)

	router.HandlerFunc(http.MethodPost, "/v1/users", app.createUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id", app.showUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/reservations", app.listUserReservationsHandler)

	return app.recoverPanic(app.requestID(app.rateLimit(router)))
}
