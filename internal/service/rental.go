package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-backend/internal/clock"
	"rental-backend/internal/domain"
	"rental-backend/internal/logger"
	"rental-backend/internal/repository"
)

// planFunc moves the locked, projected rental to its new state and returns
// every rental that must be saved. It must not write.
type planFunc func(ctx context.Context, repo repository.RentalRepository, rental *domain.Rental) ([]domain.Rental, error)

type rentalService struct {
	store    repository.RentalStore
	resolver *ConflictResolver
	clock    clock.Clock
}

func NewRentalService(store repository.RentalStore, c clock.Clock) RentalService {
	return &rentalService{
		store:    store,
		resolver: NewConflictResolver(c),
		clock:    c,
	}
}

func (s *rentalService) ConfirmRental(ctx context.Context, ownerID, rentalID int64) (*OwnerUpdateResponse, error) {
	return s.update(ctx, "rentalService.ConfirmRental", ownerID, rentalID,
		func(ctx context.Context, repo repository.RentalRepository, rental *domain.Rental) ([]domain.Rental, error) {
			if !rental.State().Can(domain.EventConfirm) {
				return nil, &domain.TransitionError{From: rental.State(), Event: domain.EventConfirm}
			}

			conflicts, err := s.resolver.FindOverlapping(ctx, repo, rental.PropertyID, domain.RentalStateConfirmed,
				rental.StartDate, rental.EndDate, rental.ID)
			if err != nil {
				return nil, err
			}
			if len(conflicts) > 0 {
				return nil, fmt.Errorf("rental %d overlaps confirmed rental %d: %w", rental.ID, conflicts[0].ID, domain.ErrConflict)
			}

			if err := rental.Fire(domain.EventConfirm); err != nil {
				return nil, err
			}
			restrained, err := s.resolver.PlanRestrain(ctx, repo, *rental)
			if err != nil {
				return nil, err
			}
			return append([]domain.Rental{*rental}, restrained...), nil
		})
}

func (s *rentalService) DenyRental(ctx context.Context, ownerID, rentalID int64) (*OwnerUpdateResponse, error) {
	return s.update(ctx, "rentalService.DenyRental", ownerID, rentalID,
		func(ctx context.Context, repo repository.RentalRepository, rental *domain.Rental) ([]domain.Rental, error) {
			if err := rental.Fire(domain.EventDeny); err != nil {
				return nil, err
			}
			return []domain.Rental{*rental}, nil
		})
}

func (s *rentalService) CancelRental(ctx context.Context, ownerID, rentalID int64, cancelDate *time.Time) (*OwnerUpdateResponse, error) {
	return s.update(ctx, "rentalService.CancelRental", ownerID, rentalID,
		func(ctx context.Context, repo repository.RentalRepository, rental *domain.Rental) ([]domain.Rental, error) {
			today := clock.Today(s.clock)
			if cancelDate != nil && domain.Date(*cancelDate).Before(today) {
				return nil, fmt.Errorf("cancel date %s is before %s: %w",
					cancelDate.Format(domain.DateLayout), today.Format(domain.DateLayout), domain.ErrInvalidDate)
			}

			if err := rental.Fire(domain.EventCancel); err != nil {
				return nil, err
			}
			revived, err := s.resolver.PlanRevive(ctx, repo, *rental)
			if err != nil {
				return nil, err
			}
			return append([]domain.Rental{*rental}, revived...), nil
		})
}

func (s *rentalService) GetRental(ctx context.Context, userID, rentalID int64) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.GetRental", "userID", userID, "rentalID", rentalID)

	rental, err := s.store.GetByID(ctx, rentalID)
	if err != nil {
		logExit("rentalService.GetRental", err, "rentalID", rentalID)
		return nil, err
	}
	if rental.OwnerID != userID && rental.RenterID != userID {
		err := fmt.Errorf("user %d cannot view rental %d: %w", userID, rentalID, domain.ErrForbidden)
		logExit("rentalService.GetRental", err, "rentalID", rentalID)
		return nil, err
	}

	projected := rental.Projected(s.clock.Now())
	logger.ExitMethod("rentalService.GetRental", "rentalID", rentalID, "state", projected.State())
	return &projected, nil
}

// update runs one owner-side lifecycle operation. The rental is loaded once to
// find its property, then reloaded under the property lock so the plan works
// on current data. All writes from plan land in a single SaveAll.
func (s *rentalService) update(ctx context.Context, method string, ownerID, rentalID int64, plan planFunc) (*OwnerUpdateResponse, error) {
	logger.EnterMethod(method, "ownerID", ownerID, "rentalID", rentalID)

	rental, err := s.store.GetByID(ctx, rentalID)
	if err != nil {
		logExit(method, err, "rentalID", rentalID)
		return nil, err
	}
	if err := checkOwner(rental, ownerID); err != nil {
		logExit(method, err, "rentalID", rentalID, "ownerID", ownerID)
		return nil, err
	}

	var (
		resp    *OwnerUpdateResponse
		changed []domain.Rental
	)
	err = s.store.WithPropertyLock(ctx, rental.PropertyID, func(ctx context.Context, repo repository.RentalRepository) error {
		current, err := repo.GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if err := checkOwner(current, ownerID); err != nil {
			return err
		}

		target := current.Projected(s.clock.Now())
		changes, err := plan(ctx, repo, &target)
		if err != nil {
			return err
		}
		if err := repo.SaveAll(ctx, changes); err != nil {
			return err
		}

		changed = changes
		resp = &OwnerUpdateResponse{OwnerID: target.OwnerID, RenterID: target.RenterID}
		return nil
	})
	if err != nil {
		logExit(method, err, "rentalID", rentalID, "propertyID", rental.PropertyID)
		return nil, err
	}

	log := logger.WithRental(rentalID, rental.PropertyID)
	for _, r := range changed[1:] {
		log.Info("Cascaded rental state change", "sibling_id", r.ID, "state", r.State())
	}
	logger.ExitMethod(method, "rentalID", rentalID, "state", changed[0].State(), "cascaded", len(changed)-1)
	return resp, nil
}

func checkOwner(rental *domain.Rental, ownerID int64) error {
	if rental.OwnerID != ownerID {
		return fmt.Errorf("user %d does not own rental %d: %w", ownerID, rental.ID, domain.ErrForbidden)
	}
	return nil
}

// logExit logs business rule rejections at warn level and everything else as an error.
func logExit(method string, err error, args ...any) {
	if isRejection(err) {
		logger.ExitMethodRejected(method, err, args...)
		return
	}
	logger.ExitMethodWithError(method, err, args...)
}

func isRejection(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrForbidden, domain.ErrIllegalTransition,
		domain.ErrConflict, domain.ErrInvalidDate, domain.ErrBusy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
