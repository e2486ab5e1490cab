package service

import (
	"context"
	"time"

	"rental-backend/internal/domain"
)

// OwnerUpdateResponse is returned by every successful owner-side update.
type OwnerUpdateResponse struct {
	OwnerID  int64 `json:"owner_id"`
	RenterID int64 `json:"renter_id"`
}

type RentalService interface {
	ConfirmRental(ctx context.Context, ownerID, rentalID int64) (*OwnerUpdateResponse, error)
	DenyRental(ctx context.Context, ownerID, rentalID int64) (*OwnerUpdateResponse, error)
	// CancelRental cancels on cancelDate, or today when it is nil.
	CancelRental(ctx context.Context, ownerID, rentalID int64, cancelDate *time.Time) (*OwnerUpdateResponse, error)
	// GetRental returns the rental with its effective state to its owner or renter.
	GetRental(ctx context.Context, userID, rentalID int64) (*domain.Rental, error)
}
