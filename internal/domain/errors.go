package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors are classified so callers can react: every one of these is a
// recoverable, user-facing condition, not control flow.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInterval     = errors.New("start time must be before end time")
	ErrBookingNotCompleted = errors.New("booking is not completed")
	ErrDuplicateReview     = errors.New("booking already has a review")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrRoomExpired         = errors.New("room has expired")
	ErrRoomFull            = errors.New("room is full")
	ErrAccessDenied        = errors.New("invalid room credential")
	ErrNotAParticipant     = errors.New("author is not a room participant")

	// ErrCollaboratorUnavailable marks storage, cache or broker failures.
	// Callers retry; it is never folded into a domain outcome.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// SlotUnavailableError reports a booking conflict together with the interval
// that already occupies the slot, so the caller can pick another time.
type SlotUnavailableError struct {
	SpaceID       string
	ConflictStart time.Time
	ConflictEnd   time.Time
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot unavailable: space %s already booked %s - %s",
		e.SpaceID, e.ConflictStart.Format(time.RFC3339), e.ConflictEnd.Format(time.RFC3339))
}

// InvalidTransitionError rejects a booking status change outside the
// pending -> confirmed -> completed graph (cancellation aside).
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking transition %s -> %s", e.From, e.To)
}

func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
}
