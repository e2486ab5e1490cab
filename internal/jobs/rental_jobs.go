package jobs

import (
	"context"

	"rental-backend/internal/clock"
	"rental-backend/internal/logger"
)

// MarkExpiredRentals stores EXPIRED for pending and restrained rentals whose
// last day has passed. Reads already project these as expired; the sweep
// keeps stored state in line so queries by state stay accurate.
func (jr *JobRunner) MarkExpiredRentals() {
	jr.runWithRecovery("MarkExpiredRentals", func() {
		if _, err := jr.markExpiredRentals(context.Background()); err != nil {
			logger.Error("Failed to mark expired rentals", "error", err)
		}
	})
}

func (jr *JobRunner) markExpiredRentals(ctx context.Context) (int, error) {
	query := `
		UPDATE rentals
		SET state = 'EXPIRED',
		    updated_on = NOW()
		WHERE state IN ('PENDING', 'RESTRAINED')
		  AND end_date < $1
		RETURNING id, property_id
	`

	today := clock.Today(jr.clock)
	logger.DatabaseCall("UPDATE", "rentals", "before", today)
	rows, err := jr.db.QueryContext(ctx, query, today)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return 0, err
	}
	defer rows.Close()

	type expired struct {
		ID         int64
		PropertyID int64
	}
	var marked []expired
	for rows.Next() {
		var r expired
		if err := rows.Scan(&r.ID, &r.PropertyID); err != nil {
			logger.Error("Failed to scan expired rental", "error", err)
			continue
		}
		marked = append(marked, r)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating expired rentals", "error", err)
		return 0, err
	}

	logger.DatabaseResult("UPDATE", int64(len(marked)), nil)
	logger.Info("Marked rentals as expired", "count", len(marked))
	for _, r := range marked {
		logger.Debug("Marked rental as expired", "rental_id", r.ID, "property_id", r.PropertyID)
	}
	return len(marked), nil
}
