package rental_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aoideee/library-rentals/internal/data"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Get(ctx context.Context, id int64) (*data.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*data.User)
	return user, args.Error(1)
}

type mockBooks struct{ mock.Mock }

func (m *mockBooks) GetByExternalID(ctx context.Context, externalID int64) (*data.Book, error) {
	args := m.Called(ctx, externalID)
	book, _ := args.Get(0).(*data.Book)
	return book, args.Error(1)
}

func (m *mockBooks) DecreaseAvailable(ctx context.Context, externalID int64) error {
	return m.Called(ctx, externalID).Error(0)
}

func (m *mockBooks) IncreaseAvailable(ctx context.Context, externalID int64) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

type mockReservations struct{ mock.Mock }

func (m *mockReservations) Insert(ctx context.Context, r *data.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservations) Update(ctx context.Context, r *data.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservations) Get(ctx context.Context, id int64) (*data.Reservation, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*data.Reservation)
	return r, args.Error(1)
}

func (m *mockReservations) GetAll(ctx context.Context) ([]*data.Reservation, error) {
	args := m.Called(ctx)
	rs, _ := args.Get(0).([]*data.Reservation)
	return rs, args.Error(1)
}

func (m *mockReservations) GetAllForUser(ctx context.Context, userID int64) ([]*data.Reservation, error) {
	args := m.Called(ctx, userID)
	rs, _ := args.Get(0).([]*data.Reservation)
	return rs, args.Error(1)
}

func (m *mockReservations) GetAllByStatus(ctx context.Context, status data.Status) ([]*data.Reservation, error) {
	args := m.Called(ctx, status)
	rs, _ := args.Get(0).([]*data.Reservation)
	return rs, args.Error(1)
}
