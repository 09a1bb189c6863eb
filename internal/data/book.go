package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aoideee/library-rentals/internal/validator"
)

// Book represents one catalog title and its copy counters.
// It maps directly to a row in the "books" table.
type Book struct {
	ExternalID        int64           `json:"external_id"`        // Catalog identifier supplied by the caller
	Title             string          `json:"title"`              // Title of the book
	Price             decimal.Decimal `json:"price"`              // Daily rental price
	StockQuantity     int             `json:"stock_quantity"`     // Copies the library owns
	AvailableQuantity int             `json:"available_quantity"` // Copies currently reservable
	CreatedAt         time.Time       `json:"created_at"`         // Timestamp when the record was created
	UpdatedAt         time.Time       `json:"updated_at"`         // Timestamp when the record was last modified
}

// CreateBookInput holds the fields a client must supply when adding a book.
// AvailableQuantity is optional and defaults to StockQuantity.
type CreateBookInput struct {
	ExternalID        int64           `json:"external_id"        validate:"required,gt=0"`
	Title             string          `json:"title"              validate:"required,max=500"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"     validate:"gte=0"`
	AvailableQuantity *int            `json:"available_quantity" validate:"omitempty,gte=0"`
}

// ValidateBook checks the counter invariant 0 <= available <= stock and the price.
func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.ExternalID > 0, "external_id", "must be greater than zero")
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(!book.Price.IsNegative(), "price", "must not be negative")
	v.Check(book.Price.Equal(book.Price.Round(2)), "price", "must have at most two decimal places")
	v.Check(book.StockQuantity >= 0, "stock_quantity", "must not be negative")
	v.Check(book.AvailableQuantity >= 0, "available_quantity", "must not be negative")
	v.Check(book.AvailableQuantity <= book.StockQuantity, "available_quantity", "must not exceed stock_quantity")
}

// BookModel wraps a *sql.DB connection and provides the catalog lookups and
// the availability counter operations.
type BookModel struct {
	DB *sql.DB // Shared database connection pool
}

// Insert adds a new book record to the database and writes the generated
// timestamps back into book.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (external_id, title, price, stock_quantity, available_quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(
		ctx,
		query,
		book.ExternalID,
		book.Title,
		book.Price,
		book.StockQuantity,
		book.AvailableQuantity,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateExternalID
		}
		return err
	}

	return nil
}

// GetByExternalID retrieves a single book by its catalog identifier.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) GetByExternalID(ctx context.Context, externalID int64) (*Book, error) {
	if externalID < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT external_id, title, price, stock_quantity, available_quantity, created_at, updated_at
		FROM books
		WHERE external_id = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var book Book
	err := m.DB.QueryRowContext(ctx, query, externalID).Scan(
		&book.ExternalID,
		&book.Title,
		&book.Price,
		&book.StockQuantity,
		&book.AvailableQuantity,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}

// GetAll retrieves a paginated, sorted list of books.
// It uses a COUNT(*) OVER() window function so only one round-trip is needed.
func (m BookModel) GetAll(ctx context.Context, filters Filters) ([]*Book, Metadata, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), external_id, title, price, stock_quantity, available_quantity, created_at, updated_at
		FROM books
		ORDER BY %s %s, external_id ASC
		LIMIT $1 OFFSET $2`, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	books := []*Book{}

	for rows.Next() {
		var book Book
		err := rows.Scan(
			&totalRecords, // COUNT(*) OVER() – same value on every row
			&book.ExternalID,
			&book.Title,
			&book.Price,
			&book.StockQuantity,
			&book.AvailableQuantity,
			&book.CreatedAt,
			&book.UpdatedAt,
		)
		if err != nil {
			return nil, Metadata{}, err
		}
		books = append(books, &book)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return books, metadata, nil
}

// DecreaseAvailable takes one copy out of circulation. The availability
// check and the decrement are a single conditional UPDATE, so two callers
// racing for the last copy cannot both succeed.
// Returns ErrOutOfStock when no copy is left and ErrRecordNotFound when the
// book does not exist.
func (m BookModel) DecreaseAvailable(ctx context.Context, externalID int64) error {
	query := `
		UPDATE books
		SET available_quantity = available_quantity - 1, updated_at = CURRENT_TIMESTAMP
		WHERE external_id = $1 AND available_quantity > 0`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, externalID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, err := m.GetByExternalID(ctx, externalID); err != nil {
			return err
		}
		return ErrOutOfStock
	}

	return nil
}

// IncreaseAvailable puts one copy back into circulation and reports whether
// the counter moved. The counter never exceeds stock_quantity; incrementing a
// fully stocked book is a no-op that returns false.
func (m BookModel) IncreaseAvailable(ctx context.Context, externalID int64) (bool, error) {
	query := `
		UPDATE books
		SET available_quantity = available_quantity + 1, updated_at = CURRENT_TIMESTAMP
		WHERE external_id = $1 AND available_quantity < stock_quantity`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, externalID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rowsAffected == 0 {
		_, err := m.GetByExternalID(ctx, externalID)
		return false, err
	}

	return true, nil
}
