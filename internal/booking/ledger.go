package booking

import (
	"context"
	"time"

	"classbook/internal/gym"
)

// ClassReader resolves class sessions for the ledger.
type ClassReader interface {
	GetClassByID(ctx context.Context, id string) (*gym.ClassSession, error)
}

// Ledger is the durable record of bookings.
//
// Error contract: GetClass returns ErrClassNotFound, GetBooking and
// SetStatus return ErrBookingNotFound, SetStatus returns an
// *InvalidTransitionError for an illegal step, InsertBooking returns
// ErrDuplicateReservation when the member already holds a reserved seat.
// Anything else is a storage failure.
type Ledger interface {
	GetClass(ctx context.Context, classID string) (*gym.ClassSession, error)
	CountReservedForClass(ctx context.Context, classID string) (int, error)
	// FindReservedBooking returns nil, nil when the member holds no reservation.
	FindReservedBooking(ctx context.Context, classID, memberID string) (*Booking, error)
	InsertBooking(ctx context.Context, gymID, classID, memberID string) (*Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	SetStatus(ctx context.Context, bookingID string, status Status) (*Booking, error)
	ListByMember(ctx context.Context, memberID string) ([]Booking, error)
	ListByClass(ctx context.Context, classID string) ([]Booking, error)
	AttendanceByDay(ctx context.Context, gymID string, from, to time.Time) ([]AttendanceStats, error)
}
