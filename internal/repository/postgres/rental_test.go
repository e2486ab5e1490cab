package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-backend/internal/domain"
	"rental-backend/internal/repository"
	"rental-backend/internal/repository/postgres"
)

var rentalColumns = []string{"id", "property_id", "owner_id", "renter_id", "start_date", "end_date", "state"}

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestRentalRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(rentalColumns).AddRow(1, 7, 42, 9, day(1), day(5), "PENDING")
		mock.ExpectQuery("SELECT (.+) FROM rentals r JOIN properties p ON p.id = r.property_id WHERE r.id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		rental, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rental.ID)
		assert.Equal(t, int64(7), rental.PropertyID)
		assert.Equal(t, int64(42), rental.OwnerID)
		assert.Equal(t, int64(9), rental.RenterID)
		assert.Equal(t, day(5), rental.EndDate)
		assert.Equal(t, domain.RentalStatePending, rental.State())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals r").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(rentalColumns))

		rental, err := repo.GetByID(ctx, 2)
		assert.Nil(t, rental)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnknownState", func(t *testing.T) {
		rows := sqlmock.NewRows(rentalColumns).AddRow(3, 7, 42, 9, day(1), day(5), "ARCHIVED")
		mock.ExpectQuery("SELECT (.+) FROM rentals r").
			WithArgs(int64(3)).
			WillReturnRows(rows)

		_, err := repo.GetByID(ctx, 3)
		assert.ErrorContains(t, err, "unknown state")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rental := domain.NewRental(1, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed)
		mock.ExpectExec("UPDATE rentals SET state = \\$1, updated_on = \\$2 WHERE id = \\$3").
			WithArgs("CONFIRMED", sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Save(ctx, &rental))
	})

	t.Run("MissingRow", func(t *testing.T) {
		rental := domain.NewRental(99, 7, 42, 9, day(1), day(5), domain.RentalStateDenied)
		mock.ExpectExec("UPDATE rentals").
			WithArgs("DENIED", sqlmock.AnyArg(), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Save(ctx, &rental), domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_FindOverlapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)

	rows := sqlmock.NewRows(rentalColumns).
		AddRow(2, 7, 42, 10, day(3), day(8), "PENDING").
		AddRow(4, 7, 42, 11, day(5), day(5), "PENDING")
	mock.ExpectQuery("WHERE r.property_id = \\$1\\s+AND r.state = \\$2\\s+AND r.start_date <= \\$4\\s+AND \\$3 <= r.end_date\\s+AND r.id <> \\$5\\s+ORDER BY r.id").
		WithArgs(int64(7), "PENDING", day(1), day(5), int64(1)).
		WillReturnRows(rows)

	rentals, err := repo.FindOverlapping(context.Background(), 7, domain.RentalStatePending, day(1), day(5), 1)
	require.NoError(t, err)
	require.Len(t, rentals, 2)
	assert.Equal(t, int64(2), rentals[0].ID)
	assert.Equal(t, int64(4), rentals[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithPropertyLock(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		store := postgres.NewStore(db, 250*time.Millisecond)

		mock.ExpectBegin()
		mock.ExpectExec("SELECT set_config\\('lock_timeout', \\$1, true\\)").
			WithArgs("250ms").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("SELECT pg_advisory_xact_lock\\(\\$1\\)").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE rentals").
			WithArgs("CONFIRMED", sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE rentals").
			WithArgs("RESTRAINED", sqlmock.AnyArg(), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = store.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			return repo.SaveAll(ctx, []domain.Rental{
				domain.NewRental(1, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed),
				domain.NewRental(2, 7, 42, 10, day(3), day(8), domain.RentalStateRestrained),
			})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackOnError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		store := postgres.NewStore(db, time.Second)

		mock.ExpectBegin()
		mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE rentals").
			WithArgs("CONFIRMED", sqlmock.AnyArg(), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE rentals").
			WithArgs("RESTRAINED", sqlmock.AnyArg(), int64(2)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err = store.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			return repo.SaveAll(ctx, []domain.Rental{
				domain.NewRental(1, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed),
				domain.NewRental(2, 7, 42, 10, day(3), day(8), domain.RentalStateRestrained),
			})
		})
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LockTimeoutIsBusy", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		store := postgres.NewStore(db, time.Second)

		mock.ExpectBegin()
		mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(7)).
			WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
		mock.ExpectRollback()

		called := false
		err = store.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrBusy)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_SaveAllIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := postgres.NewStore(db, time.Second)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE rentals").
		WithArgs("DENIED", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rentals").
		WithArgs("DENIED", sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = store.SaveAll(context.Background(), []domain.Rental{
		domain.NewRental(1, 7, 42, 9, day(1), day(5), domain.RentalStateDenied),
		domain.NewRental(2, 7, 42, 9, day(1), day(5), domain.RentalStateDenied),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS properties").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, postgres.Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
