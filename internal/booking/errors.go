package booking

import (
	"errors"
	"fmt"
)

var (
	ErrClassNotFound     = errors.New("class not found")
	ErrFullyBooked       = errors.New("class is fully booked")
	ErrAlreadyBooked     = errors.New("member already has a reservation for this class")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrBusy              = errors.New("class is busy, try again")
	ErrStorage           = errors.New("booking storage failure")

	// ErrDuplicateReservation is returned by a Ledger when an insert would
	// create a second reserved booking for the same member and class.
	ErrDuplicateReservation = errors.New("duplicate reserved booking")
)

// AlreadyBookedError carries the member's existing reservation.
// Callers should surface it as a successful, idempotent result.
type AlreadyBookedError struct {
	Booking *Booking
}

func (e *AlreadyBookedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyBooked, e.ExistingBookingID())
}

func (e *AlreadyBookedError) ExistingBookingID() string {
	if e.Booking == nil {
		return ""
	}
	return e.Booking.ID
}

func (e *AlreadyBookedError) Is(target error) bool {
	return target == ErrAlreadyBooked
}

type InvalidTransitionError struct {
	BookingID string
	From      Status
	To        Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: booking %s is %s, cannot become %s", ErrInvalidTransition, e.BookingID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StorageError wraps a failure of the underlying store or lock backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsRejection reports whether err is an expected business outcome that
// must not be logged as an error or retried.
func IsRejection(err error) bool {
	return errors.Is(err, ErrClassNotFound) ||
		errors.Is(err, ErrFullyBooked) ||
		errors.Is(err, ErrAlreadyBooked) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsTransient reports whether the caller may retry with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrBusy)
}
