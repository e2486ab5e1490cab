package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rental-backend/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS properties (
    id         BIGSERIAL PRIMARY KEY,
    owner_id   BIGINT      NOT NULL,
    created_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rentals (
    id          BIGSERIAL PRIMARY KEY,
    property_id BIGINT      NOT NULL REFERENCES properties (id),
    renter_id   BIGINT      NOT NULL,
    start_date  DATE        NOT NULL,
    end_date    DATE        NOT NULL,
    state       TEXT        NOT NULL DEFAULT 'PENDING'
                CHECK (state IN ('PENDING', 'CONFIRMED', 'RESTRAINED', 'DENIED', 'CANCELLED', 'EXPIRED')),
    created_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (start_date <= end_date)
);

CREATE INDEX IF NOT EXISTS idx_rentals_property_state_dates
    ON rentals (property_id, state, start_date, end_date);
`

// Migrate creates the tables the rental store reads and writes.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("MIGRATE", "rentals")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
