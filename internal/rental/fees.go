package rental

import (
	"github.com/shopspring/decimal"

	"github.com/aoideee/library-rentals/internal/data"
)

// LateFeeRate is the share of the daily rate charged for each day a book
// comes back after its expected return date.
var LateFeeRate = decimal.RequireFromString("0.15")

// feeScale is the number of decimal places every fee is rounded to.
const feeScale = 2

// roundHalfUp rounds to two places. Fees are never negative, so
// decimal.Round's half-away-from-zero is half-up here.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(feeScale)
}

// TotalFee is dailyRate × rentalDays rounded half-up to cents.
func TotalFee(dailyRate decimal.Decimal, rentalDays int) decimal.Decimal {
	return roundHalfUp(dailyRate.Mul(decimal.NewFromInt(int64(rentalDays))))
}

// LateDays is the number of whole days returned falls after expected, or
// zero for an on-time or early return.
func LateDays(expected, returned data.Date) int {
	return max(0, expected.DaysUntil(returned))
}

// LateFee is dailyRate × LateFeeRate × lateDays rounded half-up to cents.
func LateFee(dailyRate decimal.Decimal, lateDays int) decimal.Decimal {
	if lateDays <= 0 {
		return decimal.Zero
	}
	return roundHalfUp(dailyRate.Mul(LateFeeRate).Mul(decimal.NewFromInt(int64(lateDays))))
}

// ExpectedReturnDate is start plus the rental period.
func ExpectedReturnDate(start data.Date, rentalDays int) data.Date {
	return start.AddDays(rentalDays)
}
