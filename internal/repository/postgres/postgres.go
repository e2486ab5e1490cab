package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rental-backend/internal/domain"
	"rental-backend/internal/logger"
	"rental-backend/internal/repository"
)

// lockNotAvailable is raised when lock_timeout elapses before a lock is granted.
const lockNotAvailable pq.ErrorCode = "55P03"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	repository.RentalRepository
}

var _ repository.RentalStore = (*Store)(nil)

func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{
		db:               db,
		lockTimeout:      lockTimeout,
		RentalRepository: NewRentalRepository(db),
	}
}

// SaveAll writes the batch in its own transaction so it lands all or nothing.
func (s *Store) SaveAll(ctx context.Context, rentals []domain.Rental) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return NewRentalRepository(tx).SaveAll(ctx, rentals)
	})
}

// WithPropertyLock runs fn in a transaction holding a transaction-scoped
// advisory lock keyed by the property id. Waiting for the lock is bounded by
// the store's lock timeout.
func (s *Store) WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context, repo repository.RentalRepository) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		timeout := fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}

		logger.DatabaseCall("LOCK", "rentals", "propertyID", propertyID, "timeout", timeout)
		_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, propertyID)
		logger.DatabaseResult("LOCK", 0, err, "propertyID", propertyID)
		if err != nil {
			return lockError(propertyID, err)
		}

		return fn(ctx, NewRentalRepository(tx))
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func lockError(propertyID int64, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == lockNotAvailable {
		return fmt.Errorf("lock property %d: %w", propertyID, domain.ErrBusy)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("lock property %d: %w", propertyID, domain.ErrBusy)
	}
	return fmt.Errorf("lock property %d: %w", propertyID, err)
}
