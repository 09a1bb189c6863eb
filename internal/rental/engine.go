// Package rental implements the reservation lifecycle: creating a
// reservation against available stock, pricing it, processing the return
// and its late fee, and reading reservations back as views.
package rental

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aoideee/library-rentals/internal/data"
	"github.com/aoideee/library-rentals/internal/validator"
)

// UserDirectory resolves user ids. Unknown ids yield data.ErrRecordNotFound.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*data.User, error)
}

// BookLedger looks up books and moves their available-copy counter.
// DecreaseAvailable must check and decrement atomically and report
// data.ErrOutOfStock when no copy is left. IncreaseAvailable reports
// whether the counter moved; it does not move past the stock.
type BookLedger interface {
	GetByExternalID(ctx context.Context, externalID int64) (*data.Book, error)
	DecreaseAvailable(ctx context.Context, externalID int64) error
	IncreaseAvailable(ctx context.Context, externalID int64) (bool, error)
}

// ReservationStore persists reservations.
type ReservationStore interface {
	Insert(ctx context.Context, r *data.Reservation) error
	Update(ctx context.Context, r *data.Reservation) error
	Get(ctx context.Context, id int64) (*data.Reservation, error)
	GetAll(ctx context.Context) ([]*data.Reservation, error)
	GetAllForUser(ctx context.Context, userID int64) ([]*data.Reservation, error)
	GetAllByStatus(ctx context.Context, status data.Status) ([]*data.Reservation, error)
}

// MaxRentalDays is the longest rental period a single reservation may cover.
const MaxRentalDays = 365

// CreateRequest asks for one book to be rented from StartDate for RentalDays.
type CreateRequest struct {
	UserID         int64     `json:"user_id"`
	BookExternalID int64     `json:"book_external_id"`
	RentalDays     int       `json:"rental_days"`
	StartDate      data.Date `json:"start_date"`
}

// ReturnRequest records the day a rented book came back.
type ReturnRequest struct {
	ReturnDate data.Date `json:"return_date"`
}

// Engine orchestrates the user directory, the book ledger and the
// reservation store. It is safe for concurrent use as long as its
// collaborators are.
type Engine struct {
	users        UserDirectory
	books        BookLedger
	reservations ReservationStore
	logger       *slog.Logger
}

func New(users UserDirectory, books BookLedger, reservations ReservationStore, logger *slog.Logger) *Engine {
	return &Engine{
		users:        users,
		books:        books,
		reservations: reservations,
		logger:       logger,
	}
}

// Create reserves one copy of a book for a user.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (View, error) {
	v := validator.New()
	v.Check(req.RentalDays > 0, "rental_days", "must be greater than zero")
	v.Check(req.RentalDays <= MaxRentalDays, "rental_days", fmt.Sprintf("must not be more than %d", MaxRentalDays))
	v.Check(!req.StartDate.IsZero(), "start_date", "must be a valid calendar date")
	if !v.Valid() {
		return View{}, &ValidationError{Errors: v.Errors}
	}

	user, err := e.users.Get(ctx, req.UserID)
	if err != nil {
		return View{}, lookupError(err, "user %d", req.UserID)
	}

	book, err := e.books.GetByExternalID(ctx, req.BookExternalID)
	if err != nil {
		return View{}, lookupError(err, "book %d", req.BookExternalID)
	}

	if book.AvailableQuantity <= 0 {
		return View{}, fmt.Errorf("%w: book %d has no available copies", ErrUnavailable, book.ExternalID)
	}

	r := &data.Reservation{
		UserID:             user.ID,
		BookExternalID:     book.ExternalID,
		RentalDays:         req.RentalDays,
		StartDate:          req.StartDate,
		ExpectedReturnDate: ExpectedReturnDate(req.StartDate, req.RentalDays),
		DailyRate:          book.Price,
		TotalFee:           TotalFee(book.Price, req.RentalDays),
		LateFee:            LateFee(book.Price, 0),
		Status:             data.StatusActive,
	}

	// The ledger re-checks availability under its own guard; a concurrent
	// create may have taken the last copy since the read above.
	if err := e.books.DecreaseAvailable(ctx, book.ExternalID); err != nil {
		switch {
		case errors.Is(err, data.ErrOutOfStock):
			return View{}, fmt.Errorf("%w: book %d has no available copies", ErrUnavailable, book.ExternalID)
		default:
			return View{}, lookupError(err, "book %d", book.ExternalID)
		}
	}

	if err := e.reservations.Insert(ctx, r); err != nil {
		if _, restoreErr := e.books.IncreaseAvailable(ctx, book.ExternalID); restoreErr != nil {
			return View{}, errors.Join(
				fmt.Errorf("insert reservation: %w", err),
				fmt.Errorf("restore availability of book %d: %w", book.ExternalID, restoreErr),
			)
		}
		return View{}, fmt.Errorf("insert reservation: %w", err)
	}

	e.logger.Info("reservation created",
		slog.Int64("reservation_id", r.ID),
		slog.Int64("user_id", r.UserID),
		slog.Int64("book_external_id", r.BookExternalID),
		slog.String("total_fee", r.TotalFee.StringFixed(feeScale)),
	)

	return NewView(r), nil
}

// Return closes a reservation. A return after the expected date makes the
// reservation OVERDUE and charges a late fee; otherwise it is RETURNED.
// Either way the copy goes back into circulation.
func (e *Engine) Return(ctx context.Context, id int64, req ReturnRequest) (View, error) {
	if req.ReturnDate.IsZero() {
		return View{}, &ValidationError{Errors: map[string]string{
			"return_date": "must be a valid calendar date",
		}}
	}

	r, err := e.reservations.Get(ctx, id)
	if err != nil {
		return View{}, lookupError(err, "reservation %d", id)
	}

	if req.ReturnDate.Before(r.StartDate) {
		return View{}, &ValidationError{Errors: map[string]string{
			"return_date": "must not be before start_date",
		}}
	}

	lateDays := LateDays(r.ExpectedReturnDate, req.ReturnDate)

	next := data.StatusReturned
	if lateDays > 0 {
		next = data.StatusOverdue
	}
	if err := transition(r, next); err != nil {
		return View{}, err
	}

	returned := req.ReturnDate
	r.ActualReturnDate = &returned
	r.LateFee = LateFee(r.DailyRate, lateDays)

	// The copy goes back before the reservation is closed, so a ledger
	// failure leaves the reservation ACTIVE and the return can be retried.
	restored, err := e.books.IncreaseAvailable(ctx, r.BookExternalID)
	if err != nil {
		return View{}, fmt.Errorf("restore availability of book %d: %w", r.BookExternalID, err)
	}

	if err := e.reservations.Update(ctx, r); err != nil {
		var updateErr error
		switch {
		case errors.Is(err, data.ErrEditConflict):
			updateErr = fmt.Errorf("%w: reservation %d was modified concurrently", ErrConflict, id)
		default:
			updateErr = fmt.Errorf("update reservation %d: %w", id, err)
		}

		if !restored {
			return View{}, updateErr
		}
		if undoErr := e.books.DecreaseAvailable(ctx, r.BookExternalID); undoErr != nil {
			return View{}, errors.Join(
				updateErr,
				fmt.Errorf("take back availability of book %d: %w", r.BookExternalID, undoErr),
			)
		}
		return View{}, updateErr
	}

	e.logger.Info("reservation returned",
		slog.Int64("reservation_id", r.ID),
		slog.String("status", string(r.Status)),
		slog.Int("late_days", lateDays),
		slog.String("late_fee", r.LateFee.StringFixed(feeScale)),
	)

	return NewView(r), nil
}

// Get returns one reservation.
func (e *Engine) Get(ctx context.Context, id int64) (View, error) {
	r, err := e.reservations.Get(ctx, id)
	if err != nil {
		return View{}, lookupError(err, "reservation %d", id)
	}
	return NewView(r), nil
}

// List returns every reservation in insertion order.
func (e *Engine) List(ctx context.Context) ([]View, error) {
	rs, err := e.reservations.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return newViews(rs), nil
}

// ListByUser returns the reservations a user holds or has held.
func (e *Engine) ListByUser(ctx context.Context, userID int64) ([]View, error) {
	rs, err := e.reservations.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newViews(rs), nil
}

// ListByStatus returns the reservations currently in status.
func (e *Engine) ListByStatus(ctx context.Context, status data.Status) ([]View, error) {
	parsed, ok := data.ParseStatus(string(status))
	if !ok {
		return nil, &ValidationError{Errors: map[string]string{"status": "must be ACTIVE, RETURNED or OVERDUE"}}
	}

	rs, err := e.reservations.GetAllByStatus(ctx, parsed)
	if err != nil {
		return nil, err
	}
	return newViews(rs), nil
}

// ListActive returns the reservations that have not been returned yet.
func (e *Engine) ListActive(ctx context.Context) ([]View, error) {
	return e.ListByStatus(ctx, data.StatusActive)
}

// lookupError turns a storage miss into ErrNotFound and passes anything else through.
func lookupError(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, data.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("get %s: %w", what, err)
}
