// cmd/api/books.go
// This file contains the HTTP request handlers for the books resource.
package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aoideee/library-rentals/internal/data"
	"github.com/aoideee/library-rentals/internal/validator"
)

// createBookHandler handles POST /v1/books.
// available_quantity is optional and defaults to stock_quantity.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.CreateBookInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := &data.Book{
		ExternalID:        input.ExternalID,
		Title:             input.Title,
		Price:             input.Price,
		StockQuantity:     input.StockQuantity,
		AvailableQuantity: input.StockQuantity,
	}
	if input.AvailableQuantity != nil {
		book.AvailableQuantity = *input.AvailableQuantity
	}

	v := validator.New()
	v.CheckStruct(input)
	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Insert(r.Context(), book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateExternalID):
			app.duplicateResponse(w, r, "external_id", "a book with this external id already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/books/%d", book.ExternalID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"book": book}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /v1/books/:id, where :id is the external id.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	book, err := app.models.Books.GetByExternalID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /v1/books.
// It supports ?page=, ?page_size= and ?sort= (prefix with "-" for descending).
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	v := validator.New()

	filters := data.Filters{
		Page:     app.readInt(qs, "page", 1, v),
		PageSize: app.readInt(qs, "page_size", 20, v),
		Sort:     app.readString(qs, "sort", "external_id"),
		SortSafeList: []string{
			"external_id", "title", "price", "available_quantity",
			"-external_id", "-title", "-price", "-available_quantity",
		},
	}

	if data.ValidateFilters(v, filters); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	books, metadata, err := app.models.Books.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"books": books, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
