package repository

import (
	"context"
	"time"

	"rental-backend/internal/domain"
)

type RentalRepository interface {
	// GetByID returns domain.ErrNotFound when no rental has the id.
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	Save(ctx context.Context, rental *domain.Rental) error
	SaveAll(ctx context.Context, rentals []domain.Rental) error
	// FindOverlapping returns the rentals on propertyID stored in state whose
	// [start, end] range intersects the given one, excluding excludeID,
	// ordered by id.
	FindOverlapping(ctx context.Context, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) ([]domain.Rental, error)
}

// RentalStore is a RentalRepository that can also run a unit of work under an
// exclusive property-scoped lock. Everything fn writes through repo commits
// together or not at all. A lock that cannot be taken in time yields
// domain.ErrBusy.
type RentalStore interface {
	RentalRepository
	WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context, repo RentalRepository) error) error
}
