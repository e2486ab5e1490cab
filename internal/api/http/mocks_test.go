package http_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rental-backend/internal/domain"
	"rental-backend/internal/service"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) ConfirmRental(ctx context.Context, ownerID, rentalID int64) (*service.OwnerUpdateResponse, error) {
	args := m.Called(ctx, ownerID, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OwnerUpdateResponse), args.Error(1)
}

func (m *MockRentalService) DenyRental(ctx context.Context, ownerID, rentalID int64) (*service.OwnerUpdateResponse, error) {
	args := m.Called(ctx, ownerID, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OwnerUpdateResponse), args.Error(1)
}

func (m *MockRentalService) CancelRental(ctx context.Context, ownerID, rentalID int64, cancelDate *time.Time) (*service.OwnerUpdateResponse, error) {
	args := m.Called(ctx, ownerID, rentalID, cancelDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OwnerUpdateResponse), args.Error(1)
}

func (m *MockRentalService) GetRental(ctx context.Context, userID, rentalID int64) (*domain.Rental, error) {
	args := m.Called(ctx, userID, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error {
	return p.err
}
