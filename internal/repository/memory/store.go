// Package memory is an in-process RentalStore used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"rental-backend/internal/domain"
	"rental-backend/internal/repository"
)

const defaultLockTimeout = 5 * time.Second

type Store struct {
	mu          sync.RWMutex
	rentals     map[int64]domain.Rental
	nextID      int64
	lockTimeout time.Duration

	locksMu sync.Mutex
	locks   map[int64]*semaphore.Weighted
}

var _ repository.RentalStore = (*Store)(nil)

func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{
		rentals:     make(map[int64]domain.Rental),
		lockTimeout: lockTimeout,
		locks:       make(map[int64]*semaphore.Weighted),
	}
}

// Insert adds a rental, assigning an id when it has none.
func (s *Store) Insert(r domain.Rental) domain.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.nextID++
		r.ID = s.nextID
	} else if r.ID > s.nextID {
		s.nextID = r.ID
	}
	s.rentals[r.ID] = r
	return r
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(s.rentals, nil, id)
}

func (s *Store) Save(ctx context.Context, r *domain.Rental) error {
	return s.SaveAll(ctx, []domain.Rental{*r})
}

func (s *Store) SaveAll(ctx context.Context, rentals []domain.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rentals {
		if _, ok := s.rentals[r.ID]; !ok {
			return fmt.Errorf("save rental %d: %w", r.ID, domain.ErrNotFound)
		}
	}
	for _, r := range rentals {
		s.rentals[r.ID] = r
	}
	return nil
}

func (s *Store) FindOverlapping(ctx context.Context, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) ([]domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findOverlapping(s.rentals, nil, propertyID, state, start, end, excludeID), nil
}

// WithPropertyLock serializes units of work per property. Writes made by fn
// are staged and applied only if fn succeeds.
func (s *Store) WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context, repo repository.RentalRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sem := s.propertyLock(propertyID)

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := sem.Acquire(lockCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("lock property %d: %w", propertyID, domain.ErrBusy)
	}
	defer sem.Release(1)

	tx := &txRepo{store: s, staged: make(map[int64]domain.Rental)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range tx.staged {
		s.rentals[id] = r
	}
	return nil
}

func (s *Store) propertyLock(propertyID int64) *semaphore.Weighted {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	sem, ok := s.locks[propertyID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.locks[propertyID] = sem
	}
	return sem
}

// txRepo reads through its staged writes to the committed rentals.
type txRepo struct {
	store  *Store
	staged map[int64]domain.Rental
}

func (t *txRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return get(t.store.rentals, t.staged, id)
}

func (t *txRepo) Save(ctx context.Context, r *domain.Rental) error {
	return t.SaveAll(ctx, []domain.Rental{*r})
}

func (t *txRepo) SaveAll(ctx context.Context, rentals []domain.Rental) error {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, r := range rentals {
		if _, ok := t.store.rentals[r.ID]; !ok {
			return fmt.Errorf("save rental %d: %w", r.ID, domain.ErrNotFound)
		}
	}
	for _, r := range rentals {
		t.staged[r.ID] = r
	}
	return nil
}

func (t *txRepo) FindOverlapping(ctx context.Context, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) ([]domain.Rental, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return findOverlapping(t.store.rentals, t.staged, propertyID, state, start, end, excludeID), nil
}

func get(committed, staged map[int64]domain.Rental, id int64) (*domain.Rental, error) {
	if r, ok := staged[id]; ok {
		return &r, nil
	}
	r, ok := committed[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func findOverlapping(committed, staged map[int64]domain.Rental, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) []domain.Rental {
	window := domain.DateRange{Start: domain.Date(start), End: domain.Date(end)}

	var out []domain.Rental
	for id := range committed {
		r, _ := get(committed, staged, id)
		if r.ID == excludeID || r.PropertyID != propertyID || r.State() != state {
			continue
		}
		if r.Period().Overlaps(window) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
