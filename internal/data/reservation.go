package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusReturned Status = "RETURNED"
	StatusOverdue  Status = "OVERDUE"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusActive, StatusReturned, StatusOverdue}

// ParseStatus converts a string such as "active" or "ACTIVE" to a Status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == strings.ToUpper(s) {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusReturned || s == StatusOverdue
}

// Reservation is one book rented by one user for a bounded period.
// UserID and BookExternalID are references; the reservation owns neither.
type Reservation struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	BookExternalID     int64           `json:"book_external_id"`
	RentalDays         int             `json:"rental_days"`
	StartDate          Date            `json:"start_date"`
	ExpectedReturnDate Date            `json:"expected_return_date"`
	DailyRate          decimal.Decimal `json:"daily_rate"` // price snapshot taken at creation
	TotalFee           decimal.Decimal `json:"total_fee"`
	ActualReturnDate   *Date           `json:"actual_return_date,omitempty"`
	LateFee            decimal.Decimal `json:"late_fee"`
	Status             Status          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	Version            int32           `json:"-"`
}

// ReservationModel wraps a *sql.DB connection and persists reservations.
type ReservationModel struct {
	DB *sql.DB
}

const reservationColumns = `
	id, user_id, book_external_id, rental_days, start_date, expected_return_date,
	daily_rate, total_fee, actual_return_date, late_fee, status, created_at, version`

// Insert adds a reservation and writes the generated id, created_at and
// version back into r.
func (m ReservationModel) Insert(ctx context.Context, r *Reservation) error {
	query := `
		INSERT INTO reservations (user_id, book_external_id, rental_days, start_date,
			expected_return_date, daily_rate, total_fee, late_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version`

	args := []any{
		r.UserID,
		r.BookExternalID,
		r.RentalDays,
		r.StartDate,
		r.ExpectedReturnDate,
		r.DailyRate,
		r.TotalFee,
		r.LateFee,
		r.Status,
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return m.DB.QueryRowContext(ctx, query, args...).Scan(&r.ID, &r.CreatedAt, &r.Version)
}

// Update saves the return fields of r. The WHERE clause matches on both id
// and version, so a concurrent update makes this one fail with ErrEditConflict.
func (m ReservationModel) Update(ctx context.Context, r *Reservation) error {
	query := `
		UPDATE reservations
		SET actual_return_date = $1, late_fee = $2, status = $3, version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version`

	args := []any{
		r.ActualReturnDate,
		r.LateFee,
		r.Status,
		r.ID,
		r.Version,
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&r.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}
	return nil
}

// Get retrieves one reservation. Returns ErrRecordNotFound for unknown ids.
func (m ReservationModel) Get(ctx context.Context, id int64) (*Reservation, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	r, err := scanReservation(m.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return r, nil
}

// GetAll returns every reservation in insertion order.
func (m ReservationModel) GetAll(ctx context.Context) ([]*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY id`
	return m.list(ctx, query)
}

// GetAllForUser returns the reservations held by one user in insertion order.
func (m ReservationModel) GetAllForUser(ctx context.Context, userID int64) ([]*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY id`
	return m.list(ctx, query, userID)
}

// GetAllByStatus returns the reservations currently in the given status.
func (m ReservationModel) GetAllByStatus(ctx context.Context, status Status) ([]*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = $1 ORDER BY id`
	return m.list(ctx, query, status)
}

func (m ReservationModel) list(ctx context.Context, query string, args ...any) ([]*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := []*Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.BookExternalID,
		&r.RentalDays,
		&r.StartDate,
		&r.ExpectedReturnDate,
		&r.DailyRate,
		&r.TotalFee,
		&r.ActualReturnDate,
		&r.LateFee,
		&r.Status,
		&r.CreatedAt,
		&r.Version,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
