package data

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func givenBooks(t *testing.T, books BookStore, entries ...Book) {
	t.Helper()
	for i := range entries {
		require.NoError(t, books.Insert(context.Background(), &entries[i]))
	}
}

func Test_MemoryBooks_DecreaseAvailable_When_Concurrent(t *testing.T) {
	// setup
	ctx := context.Background()
	books := newMemoryBooks()
	givenBooks(t, books, Book{ExternalID: 1, Title: "Dune", Price: decimal.NewFromInt(2), StockQuantity: 5, AvailableQuantity: 5})

	// act
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- books.DecreaseAvailable(ctx, 1)
		}()
	}
	wg.Wait()
	close(errs)

	// assert
	ok, outOfStock := 0, 0
	for err := range errs {
		switch err {
		case nil:
			ok++
		case ErrOutOfStock:
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 45, outOfStock)

	book, err := books.GetByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, book.AvailableQuantity)
}

func Test_MemoryBooks_IncreaseAvailable_IsCappedAtStock(t *testing.T) {
	// setup
	ctx := context.Background()
	books := newMemoryBooks()
	givenBooks(t, books, Book{ExternalID: 1, Title: "Dune", StockQuantity: 2, AvailableQuantity: 1})

	// act
	first, err := books.IncreaseAvailable(ctx, 1)
	require.NoError(t, err)
	second, err := books.IncreaseAvailable(ctx, 1)
	require.NoError(t, err)

	// assert
	assert.True(t, first)
	assert.False(t, second, "a fully stocked book does not move")

	book, err := books.GetByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, book.AvailableQuantity)

	_, err = books.IncreaseAvailable(ctx, 99)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, books.DecreaseAvailable(ctx, 99), ErrRecordNotFound)
}

func Test_MemoryBooks_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	books := newMemoryBooks()
	givenBooks(t, books, Book{ExternalID: 1, Title: "Dune", StockQuantity: 2, AvailableQuantity: 2})

	book, err := books.GetByExternalID(ctx, 1)
	require.NoError(t, err)
	book.AvailableQuantity = 0

	again, err := books.GetByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, again.AvailableQuantity, "callers cannot bypass the ledger by mutating a result")
}

func Test_MemoryBooks_GetAll_SortsAndPages(t *testing.T) {
	// setup
	ctx := context.Background()
	books := newMemoryBooks()
	givenBooks(t, books,
		Book{ExternalID: 3, Title: "Emma", Price: decimal.RequireFromString("1.50")},
		Book{ExternalID: 1, Title: "Dune", Price: decimal.RequireFromString("4.00")},
		Book{ExternalID: 2, Title: "Beloved", Price: decimal.RequireFromString("2.25")},
	)
	safe := []string{"external_id", "title", "price", "-external_id", "-title", "-price"}

	// act
	byTitle, meta, err := books.GetAll(ctx, Filters{Page: 1, PageSize: 2, Sort: "title", SortSafeList: safe})

	// assert
	require.NoError(t, err)
	require.Len(t, byTitle, 2)
	assert.Equal(t, "Beloved", byTitle[0].Title)
	assert.Equal(t, "Dune", byTitle[1].Title)
	assert.Equal(t, Metadata{CurrentPage: 1, PageSize: 2, FirstPage: 1, LastPage: 2, TotalRecords: 3}, meta)

	// act
	byPriceDesc, _, err := books.GetAll(ctx, Filters{Page: 1, PageSize: 10, Sort: "-price", SortSafeList: safe})

	// assert
	require.NoError(t, err)
	require.Len(t, byPriceDesc, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{byPriceDesc[0].ExternalID, byPriceDesc[1].ExternalID, byPriceDesc[2].ExternalID})

	// act
	beyond, _, err := books.GetAll(ctx, Filters{Page: 5, PageSize: 10, Sort: "title", SortSafeList: safe})

	// assert
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func Test_MemoryReservations_Update_When_VersionIsStale(t *testing.T) {
	// setup
	ctx := context.Background()
	store := newMemoryReservations()
	r := &Reservation{UserID: 1, BookExternalID: 1, Status: StatusActive}
	require.NoError(t, store.Insert(ctx, r))

	first, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	second, err := store.Get(ctx, r.ID)
	require.NoError(t, err)

	// act
	first.Status = StatusReturned
	errFirst := store.Update(ctx, first)
	second.Status = StatusOverdue
	errSecond := store.Update(ctx, second)

	// assert
	assert.NoError(t, errFirst)
	assert.ErrorIs(t, errSecond, ErrEditConflict)

	stored, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, stored.Status)
	assert.Equal(t, int32(2), stored.Version)
}

func Test_MemoryReservations_Queries(t *testing.T) {
	// setup
	ctx := context.Background()
	store := newMemoryReservations()
	for _, r := range []*Reservation{
		{UserID: 1, Status: StatusActive},
		{UserID: 2, Status: StatusReturned},
		{UserID: 1, Status: StatusOverdue},
		{UserID: 1, Status: StatusActive},
	} {
		require.NoError(t, store.Insert(ctx, r))
	}

	// act
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	forUser, err := store.GetAllForUser(ctx, 1)
	require.NoError(t, err)
	active, err := store.GetAllByStatus(ctx, StatusActive)
	require.NoError(t, err)
	_, missing := store.Get(ctx, 42)

	// assert
	assert.Len(t, all, 4)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Len(t, forUser, 3)
	assert.Len(t, active, 2)
	assert.Equal(t, []int64{1, 4}, []int64{active[0].ID, active[1].ID})
	assert.ErrorIs(t, missing, ErrRecordNotFound)
}

func Test_MemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()

	u := &User{Name: "Juan Pérez", Email: "juan@example.com"}
	require.NoError(t, users.Insert(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	assert.ErrorIs(t, users.Insert(ctx, &User{Name: "Other", Email: "juan@example.com"}), ErrDuplicateEmail)
	assert.ErrorIs(t, users.Insert(ctx, &User{Name: "Shouting", Email: "JUAN@Example.com"}), ErrDuplicateEmail, "emails compare case-insensitively")

	got, err := users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", got.Name)

	_, err = users.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
