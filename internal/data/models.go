// internal/data/models.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/aoideee/library-rentals/internal/validator"
)

// queryTimeout bounds every database round-trip so a slow store fails fast
// instead of holding the request open.
const queryTimeout = 3 * time.Second

var (
	// ErrRecordNotFound is returned when a query finds no matching row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrEditConflict is returned when an update loses an optimistic version check.
	ErrEditConflict = errors.New("edit conflict")
	// ErrOutOfStock is returned when a book has no available copies left to decrement.
	ErrOutOfStock = errors.New("no available copies")
	// ErrDuplicateExternalID is returned when a book with the same external id exists.
	ErrDuplicateExternalID = errors.New("duplicate external id")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// BookStore is the catalog and availability ledger for books.
type BookStore interface {
	Insert(ctx context.Context, book *Book) error
	GetByExternalID(ctx context.Context, externalID int64) (*Book, error)
	GetAll(ctx context.Context, filters Filters) ([]*Book, Metadata, error)
	DecreaseAvailable(ctx context.Context, externalID int64) error
	IncreaseAvailable(ctx context.Context, externalID int64) (bool, error)
}

// UserStore is the user directory.
type UserStore interface {
	Insert(ctx context.Context, user *User) error
	Get(ctx context.Context, id int64) (*User, error)
}

// ReservationStore persists reservations. Insert assigns the id; Update is
// guarded by the reservation's version.
type ReservationStore interface {
	Insert(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error
	Get(ctx context.Context, id int64) (*Reservation, error)
	GetAll(ctx context.Context) ([]*Reservation, error)
	GetAllForUser(ctx context.Context, userID int64) ([]*Reservation, error)
	GetAllByStatus(ctx context.Context, status Status) ([]*Reservation, error)
}

// Models is a top-level container that groups all storage types together.
// It is passed around the application via applicationDependencies so every
// handler has access to storage without importing sql directly.
type Models struct {
	Books        BookStore
	Users        UserStore
	Reservations ReservationStore
}

// NewModels constructs a Models value backed by the given PostgreSQL pool.
func NewModels(db *sql.DB) Models {
	return Models{
		Books:        BookModel{DB: db},
		Users:        UserModel{DB: db},
		Reservations: ReservationModel{DB: db},
	}
}

// NewMemoryModels constructs a Models value that keeps everything in process
// memory. It is used by tests and by the -storage=memory mode.
func NewMemoryModels() Models {
	return Models{
		Books:        newMemoryBooks(),
		Users:        newMemoryUsers(),
		Reservations: newMemoryReservations(),
	}
}

// Filters holds pagination and sorting parameters extracted from URL query strings.
type Filters struct {
	Page         int      // Current page number (1-indexed)
	PageSize     int      // Number of records per page
	Sort         string   // Column name to sort by (prefix with "-" for DESC)
	SortSafeList []string // Allowed sort columns to prevent SQL injection
}

// ValidateFilters records page and sort problems on v.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(validator.In(f.Sort, f.SortSafeList...), "sort", "invalid sort value")
}

// sortColumn returns the validated column name for ORDER BY, defaulting to external_id.
func (f Filters) sortColumn() string {
	for _, safe := range f.SortSafeList {
		if f.Sort == safe {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	return "external_id" // safe fallback
}

// sortDirection returns "ASC" or "DESC" based on the Sort prefix.
func (f Filters) sortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

// limit returns the SQL LIMIT value derived from PageSize.
func (f Filters) limit() int { return f.PageSize }

// offset returns the SQL OFFSET value derived from Page and PageSize.
func (f Filters) offset() int { return (f.Page - 1) * f.PageSize }

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// calculateMetadata computes page metadata from total record count and filter values.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
