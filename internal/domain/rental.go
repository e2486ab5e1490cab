package domain

import "time"

type RentalState string

const (
	RentalStatePending    RentalState = "PENDING"
	RentalStateConfirmed  RentalState = "CONFIRMED"
	RentalStateRestrained RentalState = "RESTRAINED"
	RentalStateDenied     RentalState = "DENIED"
	RentalStateCancelled  RentalState = "CANCELLED"
	RentalStateExpired    RentalState = "EXPIRED"
)

// DateLayout is the wire and storage format for rental dates.
const DateLayout = "2006-01-02"

// Valid reports whether s is one of the known rental states.
func (s RentalState) Valid() bool {
	switch s {
	case RentalStatePending, RentalStateConfirmed, RentalStateRestrained,
		RentalStateDenied, RentalStateCancelled, RentalStateExpired:
		return true
	}
	return false
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses the closed-interval rule: a shared boundary day counts.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Date truncates t to its calendar day in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// Rental is a booking of a property by a renter for a date range.
// The state can only be changed through Fire.
type Rental struct {
	ID         int64
	PropertyID int64
	OwnerID    int64
	RenterID   int64
	StartDate  time.Time
	EndDate    time.Time
	state      RentalState
}

// NewRental rebuilds a rental from stored values.
func NewRental(id, propertyID, ownerID, renterID int64, start, end time.Time, state RentalState) Rental {
	return Rental{
		ID:         id,
		PropertyID: propertyID,
		OwnerID:    ownerID,
		RenterID:   renterID,
		StartDate:  Date(start),
		EndDate:    Date(end),
		state:      state,
	}
}

func (r Rental) State() RentalState {
	return r.state
}

func (r Rental) Period() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// Fire applies event to the rental, leaving it untouched when the
// transition is not legal from the current state.
func (r *Rental) Fire(event RentalEvent) error {
	next, err := r.state.Next(event)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

// Projected returns a copy of the rental carrying its effective state at now.
func (r Rental) Projected(now time.Time) Rental {
	r.state = EffectiveState(r.state, r.EndDate, now)
	return r
}

// EffectiveState computes the state a stored rental has at now. Pending and
// restrained rentals whose last day is before today are expired; every other
// stored state is final as stored.
func EffectiveState(stored RentalState, endDate, now time.Time) RentalState {
	switch stored {
	case RentalStatePending, RentalStateRestrained:
		if Date(endDate).Before(Date(now)) {
			return RentalStateExpired
		}
	}
	return stored
}
