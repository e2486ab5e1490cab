package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rental-backend/internal/domain"
	"rental-backend/internal/repository"
)

// MockRentalStore runs the locked unit of work against itself.
type MockRentalStore struct {
	mock.Mock
}

func (m *MockRentalStore) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	r := *args.Get(0).(*domain.Rental)
	return &r, args.Error(1)
}

func (m *MockRentalStore) Save(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}

func (m *MockRentalStore) SaveAll(ctx context.Context, rentals []domain.Rental) error {
	args := m.Called(ctx, rentals)
	return args.Error(0)
}

func (m *MockRentalStore) FindOverlapping(ctx context.Context, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) ([]domain.Rental, error) {
	args := m.Called(ctx, propertyID, state, start, end, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalStore) WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context, repo repository.RentalRepository) error) error {
	args := m.Called(ctx, propertyID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}
