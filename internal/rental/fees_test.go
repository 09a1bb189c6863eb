package rental_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/aoideee/library-rentals/internal/data"
	"github.com/aoideee/library-rentals/internal/rental"
)

func Test_TotalFee(t *testing.T) {
	tests := []struct {
		name       string
		dailyRate  string
		rentalDays int
		want       string
	}{
		{name: "seven_days_at_15_99", dailyRate: "15.99", rentalDays: 7, want: "111.93"},
		{name: "one_day", dailyRate: "3.50", rentalDays: 1, want: "3.50"},
		{name: "free_book", dailyRate: "0", rentalDays: 14, want: "0.00"},
		{name: "half_cent_rounds_up", dailyRate: "0.125", rentalDays: 1, want: "0.13"},
		{name: "below_half_cent_rounds_down", dailyRate: "0.124", rentalDays: 1, want: "0.12"},
		{name: "sub_cent_rate_over_many_days", dailyRate: "1.005", rentalDays: 3, want: "3.02"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := rental.TotalFee(decimal.RequireFromString(tc.dailyRate), tc.rentalDays)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func Test_LateFee(t *testing.T) {
	tests := []struct {
		name      string
		dailyRate string
		lateDays  int
		want      string
	}{
		{name: "three_days_late_at_15_99", dailyRate: "15.99", lateDays: 3, want: "7.20"},
		{name: "on_time", dailyRate: "15.99", lateDays: 0, want: "0.00"},
		{name: "negative_days_are_on_time", dailyRate: "15.99", lateDays: -2, want: "0.00"},
		{name: "one_day_late", dailyRate: "10.00", lateDays: 1, want: "1.50"},
		{name: "half_cent_rounds_up", dailyRate: "0.10", lateDays: 1, want: "0.02"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := rental.LateFee(decimal.RequireFromString(tc.dailyRate), tc.lateDays)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func Test_LateDays(t *testing.T) {
	expected := data.NewDate(2025, 3, 10)

	assert.Equal(t, 0, rental.LateDays(expected, data.NewDate(2025, 3, 1)), "early return")
	assert.Equal(t, 0, rental.LateDays(expected, expected), "on the expected day")
	assert.Equal(t, 3, rental.LateDays(expected, data.NewDate(2025, 3, 13)), "three days late")
	assert.Equal(t, 22, rental.LateDays(expected, data.NewDate(2025, 4, 1)), "across a month boundary")
}

func Test_LateFee_When_ReturnIsCenturiesLate(t *testing.T) {
	expected := data.NewDate(2025, 1, 1)
	returned := data.NewDate(2525, 1, 1)

	days := rental.LateDays(expected, returned)

	assert.Equal(t, 182622, days)
	assert.Equal(t, "438018.87", rental.LateFee(decimal.RequireFromString("15.99"), days).StringFixed(2))
}

func Test_ExpectedReturnDate(t *testing.T) {
	start := data.NewDate(2024, 2, 25)

	assert.Equal(t, data.NewDate(2024, 3, 3), rental.ExpectedReturnDate(start, 7), "leap year February")
	assert.Equal(t, data.NewDate(2024, 2, 26), rental.ExpectedReturnDate(start, 1))
}
