package data

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryBooks is a BookStore kept in process memory. A single mutex guards
// every counter, so the availability check and the decrement happen as one
// step.
type memoryBooks struct {
	mu    sync.Mutex
	books map[int64]*Book
}

func newMemoryBooks() *memoryBooks {
	return &memoryBooks{books: make(map[int64]*Book)}
}

func (m *memoryBooks) Insert(_ context.Context, book *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.books[book.ExternalID]; exists {
		return ErrDuplicateExternalID
	}

	now := time.Now().UTC()
	book.CreatedAt, book.UpdatedAt = now, now

	stored := *book
	m.books[book.ExternalID] = &stored
	return nil
}

func (m *memoryBooks) GetByExternalID(_ context.Context, externalID int64) (*Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[externalID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *book
	return &copied, nil
}

func (m *memoryBooks) GetAll(_ context.Context, filters Filters) ([]*Book, Metadata, error) {
	m.mu.Lock()
	all := make([]*Book, 0, len(m.books))
	for _, book := range m.books {
		copied := *book
		all = append(all, &copied)
	}
	m.mu.Unlock()

	desc := filters.sortDirection() == "DESC"
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		var less, equal bool
		switch filters.sortColumn() {
		case "title":
			less, equal = a.Title < b.Title, a.Title == b.Title
		case "price":
			less, equal = a.Price.LessThan(b.Price), a.Price.Equal(b.Price)
		case "available_quantity":
			less, equal = a.AvailableQuantity < b.AvailableQuantity, a.AvailableQuantity == b.AvailableQuantity
		default:
			less, equal = a.ExternalID < b.ExternalID, a.ExternalID == b.ExternalID
		}
		if equal {
			return a.ExternalID < b.ExternalID
		}
		if desc {
			return !less
		}
		return less
	})

	total := len(all)
	start := min(filters.offset(), total)
	end := min(start+filters.limit(), total)

	return all[start:end], calculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (m *memoryBooks) DecreaseAvailable(_ context.Context, externalID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[externalID]
	if !ok {
		return ErrRecordNotFound
	}
	if book.AvailableQuantity <= 0 {
		return ErrOutOfStock
	}
	book.AvailableQuantity--
	book.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryBooks) IncreaseAvailable(_ context.Context, externalID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[externalID]
	if !ok {
		return false, ErrRecordNotFound
	}
	if book.AvailableQuantity >= book.StockQuantity {
		return false, nil
	}
	book.AvailableQuantity++
	book.UpdatedAt = time.Now().UTC()
	return true, nil
}

type memoryUsers struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{nextID: 1, users: make(map[int64]*User)}
}

func (m *memoryUsers) Insert(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}

	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.nextID++

	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memoryUsers) Get(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

// memoryReservations keeps reservations in insertion order.
type memoryReservations struct {
	mu           sync.RWMutex
	nextID       int64
	reservations []*Reservation
}

func newMemoryReservations() *memoryReservations {
	return &memoryReservations{nextID: 1}
}

func (m *memoryReservations) Insert(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.nextID
	r.CreatedAt = time.Now().UTC()
	r.Version = 1
	m.nextID++

	m.reservations = append(m.reservations, cloneReservation(r))
	return nil
}

func (m *memoryReservations) Update(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, stored := range m.reservations {
		if stored.ID != r.ID {
			continue
		}
		if stored.Version != r.Version {
			return ErrEditConflict
		}
		r.Version++
		m.reservations[i] = cloneReservation(r)
		return nil
	}
	return ErrEditConflict
}

func (m *memoryReservations) Get(_ context.Context, id int64) (*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stored := range m.reservations {
		if stored.ID == id {
			return cloneReservation(stored), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *memoryReservations) GetAll(_ context.Context) ([]*Reservation, error) {
	return m.filter(func(*Reservation) bool { return true }), nil
}

func (m *memoryReservations) GetAllForUser(_ context.Context, userID int64) ([]*Reservation, error) {
	return m.filter(func(r *Reservation) bool { return r.UserID == userID }), nil
}

func (m *memoryReservations) GetAllByStatus(_ context.Context, status Status) ([]*Reservation, error) {
	return m.filter(func(r *Reservation) bool { return r.Status == status }), nil
}

func (m *memoryReservations) filter(keep func(*Reservation) bool) []*Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*Reservation{}
	for _, stored := range m.reservations {
		if keep(stored) {
			out = append(out, cloneReservation(stored))
		}
	}
	return out
}

func cloneReservation(r *Reservation) *Reservation {
	copied := *r
	if r.ActualReturnDate != nil {
		d := *r.ActualReturnDate
		copied.ActualReturnDate = &d
	}
	return &copied
}
