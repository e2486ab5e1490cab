package service

import (
	"context"
	"time"

	"rental-backend/internal/clock"
	"rental-backend/internal/domain"
	"rental-backend/internal/logger"
	"rental-backend/internal/repository"
)

// ConflictResolver finds rentals competing for the same property and days,
// and computes the restrain/revive cascades that follow a confirm or cancel.
type ConflictResolver struct {
	clock clock.Clock
}

func NewConflictResolver(c clock.Clock) *ConflictResolver {
	return &ConflictResolver{clock: c}
}

// FindOverlapping returns every rental on propertyID stored in state whose
// range intersects [start, end], excluding excludeID, ordered by id.
func (r *ConflictResolver) FindOverlapping(ctx context.Context, repo repository.RentalRepository, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) ([]domain.Rental, error) {
	return repo.FindOverlapping(ctx, propertyID, state, domain.Date(start), domain.Date(end), excludeID)
}

// PlanRestrain returns the pending siblings of confirmed, already moved to
// RESTRAINED. Siblings that have expired are left out. Nothing is written.
func (r *ConflictResolver) PlanRestrain(ctx context.Context, repo repository.RentalRepository, confirmed domain.Rental) ([]domain.Rental, error) {
	return r.plan(ctx, repo, confirmed, domain.RentalStatePending, domain.EventRestrain)
}

// PlanRevive returns the restrained siblings of cancelled, already moved back
// to PENDING. Expired siblings are left out. Nothing is written.
func (r *ConflictResolver) PlanRevive(ctx context.Context, repo repository.RentalRepository, cancelled domain.Rental) ([]domain.Rental, error) {
	return r.plan(ctx, repo, cancelled, domain.RentalStateRestrained, domain.EventRevive)
}

// Restrain plans and saves the restrain cascade, returning how many rentals changed.
func (r *ConflictResolver) Restrain(ctx context.Context, repo repository.RentalRepository, confirmed domain.Rental) (int, error) {
	return r.apply(ctx, repo, confirmed, domain.RentalStatePending, domain.EventRestrain)
}

// Revive plans and saves the revive cascade, returning how many rentals changed.
func (r *ConflictResolver) Revive(ctx context.Context, repo repository.RentalRepository, cancelled domain.Rental) (int, error) {
	return r.apply(ctx, repo, cancelled, domain.RentalStateRestrained, domain.EventRevive)
}

func (r *ConflictResolver) apply(ctx context.Context, repo repository.RentalRepository, source domain.Rental, from domain.RentalState, event domain.RentalEvent) (int, error) {
	changes, err := r.plan(ctx, repo, source, from, event)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}
	if err := repo.SaveAll(ctx, changes); err != nil {
		return 0, err
	}
	return len(changes), nil
}

func (r *ConflictResolver) plan(ctx context.Context, repo repository.RentalRepository, source domain.Rental, from domain.RentalState, event domain.RentalEvent) ([]domain.Rental, error) {
	siblings, err := r.FindOverlapping(ctx, repo, source.PropertyID, from, source.StartDate, source.EndDate, source.ID)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	changes := make([]domain.Rental, 0, len(siblings))
	for _, sibling := range siblings {
		if domain.EffectiveState(sibling.State(), sibling.EndDate, now) == domain.RentalStateExpired {
			logger.Debug("Skipping expired rental in cascade",
				"rental_id", sibling.ID, "event", event, "source_rental_id", source.ID)
			continue
		}
		if err := sibling.Fire(event); err != nil {
			return nil, err
		}
		changes = append(changes, sibling)
	}
	return changes, nil
}
