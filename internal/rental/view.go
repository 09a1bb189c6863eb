package rental

import (
	"time"

	"github.com/aoideee/library-rentals/internal/data"
)

// View is the response projection of a reservation. Money fields are
// rendered with exactly two decimal places.
type View struct {
	ID                 int64       `json:"id"`
	UserID             int64       `json:"user_id"`
	BookExternalID     int64       `json:"book_external_id"`
	RentalDays         int         `json:"rental_days"`
	StartDate          data.Date   `json:"start_date"`
	ExpectedReturnDate data.Date   `json:"expected_return_date"`
	ActualReturnDate   *data.Date  `json:"actual_return_date,omitempty"`
	DailyRate          string      `json:"daily_rate"`
	TotalFee           string      `json:"total_fee"`
	LateFee            string      `json:"late_fee"`
	Status             data.Status `json:"status"`
	CreatedAt          time.Time   `json:"created_at"`
}

// NewView maps a stored reservation to its projection. Nothing is recomputed.
func NewView(r *data.Reservation) View {
	return View{
		ID:                 r.ID,
		UserID:             r.UserID,
		BookExternalID:     r.BookExternalID,
		RentalDays:         r.RentalDays,
		StartDate:          r.StartDate,
		ExpectedReturnDate: r.ExpectedReturnDate,
		ActualReturnDate:   r.ActualReturnDate,
		DailyRate:          r.DailyRate.StringFixed(feeScale),
		TotalFee:           r.TotalFee.StringFixed(feeScale),
		LateFee:            r.LateFee.StringFixed(feeScale),
		Status:             r.Status,
		CreatedAt:          r.CreatedAt,
	}
}

func newViews(rs []*data.Reservation) []View {
	views := make([]View, len(rs))
	for i, r := range rs {
		views[i] = NewView(r)
	}
	return views
}
