package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-backend/internal/domain"
	"rental-backend/internal/logger"
	"rental-backend/internal/repository"
)

const selectRental = `SELECT r.id, r.property_id, p.owner_id, r.renter_id, r.start_date, r.end_date, r.state
	FROM rentals r JOIN properties p ON p.id = r.property_id`

type rentalRepository struct {
	db querier
}

func NewRentalRepository(db querier) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	logger.DatabaseCall("SELECT", "rentals", "rentalID", id)
	rt, err := scanRental(r.db.QueryRowContext(ctx, selectRental+` WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("SELECT", 0, nil, "rentalID", id)
		return nil, domain.ErrNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "rentalID", id)
		return nil, err
	}
	logger.DatabaseResult("SELECT", 1, nil, "rentalID", id)
	return rt, nil
}

// Save persists the rental's state; every other column is owned by the code
// that creates rentals.
func (r *rentalRepository) Save(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET state = $1, updated_on = $2 WHERE id = $3`
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID, "state", rt.State())

	res, err := r.db.ExecContext(ctx, query, string(rt.State()), time.Now().UTC(), rt.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rentalID", rt.ID)
		return fmt.Errorf("update rental %d: %w", rt.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil, "rentalID", rt.ID)
	if n == 0 {
		return fmt.Errorf("update rental %d: %w", rt.ID, domain.ErrNotFound)
	}
	return nil
}

// SaveAll stops at the first failure. Callers wanting all-or-nothing run it
// inside a transaction (Store.SaveAll, Store.WithPropertyLock).
func (r *rentalRepository) SaveAll(ctx context.Context, rentals []domain.Rental) error {
	for i := range rentals {
		if err := r.Save(ctx, &rentals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *rentalRepository) FindOverlapping(ctx context.Context, propertyID int64, state domain.RentalState, start, end time.Time, excludeID int64) ([]domain.Rental, error) {
	query := selectRental + `
	WHERE r.property_id = $1
	  AND r.state = $2
	  AND r.start_date <= $4
	  AND $3 <= r.end_date
	  AND r.id <> $5
	ORDER BY r.id`
	logger.DatabaseCall("SELECT", "rentals", "propertyID", propertyID, "state", state, "excludeID", excludeID)

	rows, err := r.db.QueryContext(ctx, query, propertyID, string(state), domain.Date(start), domain.Date(end), excludeID)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "propertyID", propertyID)
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("SELECT", int64(len(rentals)), nil, "propertyID", propertyID)
	return rentals, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRental(s scanner) (*domain.Rental, error) {
	var (
		id, propertyID, ownerID, renterID int64
		start, end                        time.Time
		state                             string
	)
	if err := s.Scan(&id, &propertyID, &ownerID, &renterID, &start, &end, &state); err != nil {
		return nil, err
	}
	st := domain.RentalState(state)
	if !st.Valid() {
		return nil, fmt.Errorf("rental %d has unknown state %q", id, state)
	}
	rt := domain.NewRental(id, propertyID, ownerID, renterID, start, end, st)
	return &rt, nil
}
