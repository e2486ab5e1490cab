package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-backend/internal/domain"
	"rental-backend/internal/repository"
)

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func seed(s *Store) (a, b domain.Rental) {
	a = s.Insert(domain.NewRental(0, 7, 42, 9, day(1), day(5), domain.RentalStatePending))
	b = s.Insert(domain.NewRental(0, 7, 42, 10, day(3), day(8), domain.RentalStatePending))
	return a, b
}

func TestStore_InsertAssignsIDs(t *testing.T) {
	s := NewStore(0)
	a, b := seed(s)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	c := s.Insert(domain.NewRental(10, 7, 42, 9, day(1), day(1), domain.RentalStatePending))
	d := s.Insert(domain.NewRental(0, 7, 42, 9, day(1), day(1), domain.RentalStatePending))
	assert.Equal(t, int64(10), c.ID)
	assert.Equal(t, int64(11), d.ID)
}

func TestStore_GetByID(t *testing.T) {
	s := NewStore(0)
	a, _ := seed(s)

	got, err := s.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, *got)

	_, err = s.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_FindOverlapping(t *testing.T) {
	s := NewStore(0)
	a, b := seed(s)
	s.Insert(domain.NewRental(0, 7, 42, 11, day(9), day(12), domain.RentalStatePending))
	s.Insert(domain.NewRental(0, 8, 43, 11, day(1), day(5), domain.RentalStatePending))
	s.Insert(domain.NewRental(0, 7, 42, 11, day(2), day(2), domain.RentalStateConfirmed))

	got, err := s.FindOverlapping(context.Background(), 7, domain.RentalStatePending, a.StartDate, a.EndDate, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}

func TestStore_SaveAllUnknownRentalChangesNothing(t *testing.T) {
	s := NewStore(0)
	a, _ := seed(s)

	confirmed := domain.NewRental(a.ID, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed)
	ghost := domain.NewRental(99, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed)
	err := s.SaveAll(context.Background(), []domain.Rental{confirmed, ghost})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, _ := s.GetByID(context.Background(), a.ID)
	assert.Equal(t, domain.RentalStatePending, got.State())
}

func TestStore_WithPropertyLock(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		s := NewStore(0)
		a, b := seed(s)

		err := s.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			confirmed := domain.NewRental(a.ID, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed)
			if err := repo.Save(ctx, &confirmed); err != nil {
				return err
			}
			// staged writes are visible inside the unit of work
			got, err := repo.GetByID(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.RentalStateConfirmed, got.State())

			// but not outside it
			committed, err := s.GetByID(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.RentalStatePending, committed.State())

			overlapping, err := repo.FindOverlapping(ctx, 7, domain.RentalStatePending, day(1), day(5), b.ID)
			require.NoError(t, err)
			assert.Empty(t, overlapping)
			return nil
		})
		require.NoError(t, err)

		got, _ := s.GetByID(ctx, a.ID)
		assert.Equal(t, domain.RentalStateConfirmed, got.State())
	})

	t.Run("DiscardsOnError", func(t *testing.T) {
		s := NewStore(0)
		a, _ := seed(s)
		boom := errors.New("boom")

		err := s.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			confirmed := domain.NewRental(a.ID, 7, 42, 9, day(1), day(5), domain.RentalStateConfirmed)
			if err := repo.Save(ctx, &confirmed); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, _ := s.GetByID(ctx, a.ID)
		assert.Equal(t, domain.RentalStatePending, got.State())
	})

	t.Run("BusyAfterTimeout", func(t *testing.T) {
		s := NewStore(20 * time.Millisecond)
		held := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error)

		go func() {
			done <- s.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		err := s.WithPropertyLock(ctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			t.Error("unit of work must not run without the lock")
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrBusy)

		// other properties are not blocked
		err = s.WithPropertyLock(ctx, 8, func(ctx context.Context, repo repository.RentalRepository) error {
			return nil
		})
		assert.NoError(t, err)

		close(release)
		assert.NoError(t, <-done)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		s := NewStore(time.Second)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := s.WithPropertyLock(cctx, 7, func(ctx context.Context, repo repository.RentalRepository) error {
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
