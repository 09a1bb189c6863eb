package data

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// givenPostgres connects to the database named by LIBRARY_TEST_DB_DSN,
// applies the migrations and empties the tables. Without the variable the
// calling test is skipped.
func givenPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("LIBRARY_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_DB_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, file := range []string{
		"../../migrations/000000_create_citext_extension.up.sql",
		"../../migrations/000001_create_library_tables.up.sql",
	} {
		stmt, err := os.ReadFile(file)
		require.NoError(t, err)
		_, err = db.Exec(string(stmt))
		require.NoError(t, err, "applying %s", file)
	}

	_, err = db.Exec(`TRUNCATE reservations, users, books RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func Test_Postgres_DecreaseAvailable_When_Concurrent(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	models := NewModels(givenPostgres(t))

	// arrange
	require.NoError(t, models.Books.Insert(ctx, &Book{
		ExternalID: 258027, Title: "The Lord of the Rings",
		Price: decimal.RequireFromString("15.99"), StockQuantity: 3, AvailableQuantity: 2,
	}))

	// act
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- models.Books.DecreaseAvailable(ctx, 258027)
		}()
	}
	wg.Wait()
	close(errs)

	// assert
	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrOutOfStock)
	}
	assert.Equal(t, 2, ok)

	book, err := models.Books.GetByExternalID(ctx, 258027)
	require.NoError(t, err)
	assert.Equal(t, 0, book.AvailableQuantity)
	assert.True(t, decimal.RequireFromString("15.99").Equal(book.Price))

	assert.ErrorIs(t, models.Books.DecreaseAvailable(ctx, 1), ErrRecordNotFound)
}

func Test_Postgres_ReservationRoundTrip(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	models := NewModels(givenPostgres(t))

	// arrange
	require.NoError(t, models.Books.Insert(ctx, &Book{
		ExternalID: 1, Title: "Dune", Price: decimal.RequireFromString("3.00"), StockQuantity: 1, AvailableQuantity: 1,
	}))
	user := &User{Name: "Juan Pérez", Email: "juan@example.com"}
	require.NoError(t, models.Users.Insert(ctx, user))
	assert.ErrorIs(t, models.Users.Insert(ctx, &User{Name: "Dup", Email: "JUAN@example.com"}), ErrDuplicateEmail)

	r := &Reservation{
		UserID:             user.ID,
		BookExternalID:     1,
		RentalDays:         7,
		StartDate:          NewDate(2025, time.May, 1),
		ExpectedReturnDate: NewDate(2025, time.May, 8),
		DailyRate:          decimal.RequireFromString("3.00"),
		TotalFee:           decimal.RequireFromString("21.00"),
		LateFee:            decimal.Zero,
		Status:             StatusActive,
	}

	// act
	require.NoError(t, models.Reservations.Insert(ctx, r))
	stale := *r
	returned := NewDate(2025, time.May, 9)
	r.ActualReturnDate = &returned
	r.LateFee = decimal.RequireFromString("0.45")
	r.Status = StatusOverdue
	require.NoError(t, models.Reservations.Update(ctx, r))

	// assert
	assert.ErrorIs(t, models.Reservations.Update(ctx, &stale), ErrEditConflict)

	got, err := models.Reservations.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, got.Status)
	require.NotNil(t, got.ActualReturnDate)
	assert.Equal(t, returned, *got.ActualReturnDate)
	assert.Equal(t, "0.45", got.LateFee.StringFixed(2))
	assert.Equal(t, NewDate(2025, time.May, 8), got.ExpectedReturnDate)

	overdue, err := models.Reservations.GetAllByStatus(ctx, StatusOverdue)
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	forUser, err := models.Reservations.GetAllForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, forUser, 1)

	_, err = models.Reservations.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
