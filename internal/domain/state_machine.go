package domain

type RentalEvent string

const (
	EventConfirm  RentalEvent = "confirm"
	EventDeny     RentalEvent = "deny"
	EventCancel   RentalEvent = "cancel"
	EventRestrain RentalEvent = "restrain"
	EventRevive   RentalEvent = "revive"
)

// transitions is the complete table of legal moves. Restrain on an already
// restrained rental is a no-op so cascades can be replayed.
var transitions = map[RentalState]map[RentalEvent]RentalState{
	RentalStatePending: {
		EventConfirm:  RentalStateConfirmed,
		EventDeny:     RentalStateDenied,
		EventRestrain: RentalStateRestrained,
	},
	RentalStateRestrained: {
		EventDeny:     RentalStateDenied,
		EventRevive:   RentalStatePending,
		EventRestrain: RentalStateRestrained,
	},
	RentalStateConfirmed: {
		EventCancel: RentalStateCancelled,
	},
}

// Next returns the state reached by applying event, or a *TransitionError.
func (s RentalState) Next(event RentalEvent) (RentalState, error) {
	if to, ok := transitions[s][event]; ok {
		return to, nil
	}
	return s, &TransitionError{From: s, Event: event}
}

// Can reports whether event is legal from s.
func (s RentalState) Can(event RentalEvent) bool {
	_, ok := transitions[s][event]
	return ok
}

// Terminal reports whether no event can move a rental out of s.
func (s RentalState) Terminal() bool {
	return len(transitions[s]) == 0
}
