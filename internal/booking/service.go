package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classbook/internal/logger"
	"classbook/internal/metrics"
)

const DefaultLockTimeout = 3 * time.Second

// Reservation outcomes, used as metric labels.
const (
	outcomeReserved       = "reserved"
	outcomeAlreadyBooked  = "already_booked"
	outcomeFullyBooked    = "fully_booked"
	outcomeClassNotFound  = "class_not_found"
	outcomeBusy           = "busy"
	outcomeCanceled       = "canceled"
	outcomeStorageFailure = "storage_failure"
)

type Service interface {
	Reserve(ctx context.Context, gymID, classID, memberID string) (*Booking, error)
	Cancel(ctx context.Context, bookingID string) (*Booking, error)
	MarkAttended(ctx context.Context, bookingID string) (*Booking, error)
	MarkNoShow(ctx context.Context, bookingID string) (*Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	ListMemberBookings(ctx context.Context, memberID string) ([]Booking, error)
	ListClassBookings(ctx context.Context, gymID, classID string) ([]Booking, error)
	AttendanceStats(ctx context.Context, gymID string, from, to time.Time) ([]AttendanceStats, error)
}

type Option func(*service)

// WithLockTimeout bounds how long Reserve waits for the class lock before
// giving up with ErrBusy.
func WithLockTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithHoldTimeout bounds the work done while holding the class lock. Use it
// with lockers whose ownership expires, so the holder gives up before the
// lock does.
func WithHoldTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.holdTimeout = d
		}
	}
}

type service struct {
	ledger      Ledger
	gate        *Gate
	locker      Locker
	lockTimeout time.Duration
	holdTimeout time.Duration
}

func NewService(ledger Ledger, locker Locker, opts ...Option) Service {
	s := &service{
		ledger:      ledger,
		gate:        NewGate(ledger),
		locker:      locker,
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve books a seat for memberID in classID. The capacity check, the
// duplicate check and the insert all happen while holding the class lock.
func (s *service) Reserve(ctx context.Context, gymID, classID, memberID string) (*Booking, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	start := time.Now()
	release, err := s.locker.Acquire(lockCtx, classID)
	metrics.RecordLockWait(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			metrics.RecordLockTimeout()
			metrics.RecordReservation(outcomeBusy)
			logger.Warn("Class lock not acquired", "class_id", classID, "member_id", memberID, "error", err)
			return nil, fmt.Errorf("%w: class %s", ErrBusy, classID)
		}
		metrics.RecordReservation(outcomeStorageFailure)
		return nil, s.storageFailure("acquire class lock", err, "class_id", classID)
	}
	defer release()

	workCtx := ctx
	if s.holdTimeout > 0 {
		var cancelWork context.CancelFunc
		workCtx, cancelWork = context.WithTimeout(ctx, s.holdTimeout)
		defer cancelWork()
	}

	booking, err := s.reserveLocked(workCtx, gymID, classID, memberID)
	metrics.RecordReservation(reservationOutcome(err))
	if err != nil {
		return nil, err
	}

	logger.Info("Booking reserved",
		"booking_id", booking.ID,
		"class_id", classID,
		"member_id", memberID,
	)
	return booking, nil
}

func (s *service) reserveLocked(ctx context.Context, gymID, classID, memberID string) (*Booking, error) {
	decision, err := s.gate.CanAdmit(ctx, classID)
	if err != nil {
		return nil, s.storageFailure("check capacity", err, "class_id", classID)
	}
	// A class of another gym is invisible to this member.
	if decision.Class != nil && decision.Class.GymID != gymID {
		logger.Debug("Reservation rejected", "class_id", classID, "reason", "other gym")
		return nil, ErrClassNotFound
	}
	if !decision.Admitted {
		logger.Debug("Reservation rejected",
			"class_id", classID,
			"member_id", memberID,
			"reason", decision.Reason,
			"reserved", decision.Reserved,
		)
		return nil, decision.Reason
	}

	existing, err := s.ledger.FindReservedBooking(ctx, classID, memberID)
	if err != nil {
		return nil, s.storageFailure("find reserved booking", err, "class_id", classID)
	}
	if existing != nil {
		logger.Debug("Member already booked", "class_id", classID, "member_id", memberID, "booking_id", existing.ID)
		return nil, &AlreadyBookedError{Booking: existing}
	}

	booking, err := s.ledger.InsertBooking(ctx, gymID, classID, memberID)
	switch {
	case err == nil:
		return booking, nil
	case errors.Is(err, ErrDuplicateReservation):
		// Only reachable if something wrote past the class lock.
		existing, findErr := s.ledger.FindReservedBooking(ctx, classID, memberID)
		if findErr == nil && existing != nil {
			return nil, &AlreadyBookedError{Booking: existing}
		}
		return nil, s.storageFailure("insert booking", err, "class_id", classID)
	case errors.Is(err, ErrClassNotFound):
		return nil, ErrClassNotFound
	default:
		return nil, s.storageFailure("insert booking", err, "class_id", classID)
	}
}

func (s *service) Cancel(ctx context.Context, bookingID string) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusCancelled)
}

func (s *service) MarkAttended(ctx context.Context, bookingID string) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusAttended)
}

func (s *service) MarkNoShow(ctx context.Context, bookingID string) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusNoShow)
}

// transition needs no class lock: it never adds a reserved seat, and the
// ledger applies it as a compare-and-set on the current status.
func (s *service) transition(ctx context.Context, bookingID string, to Status) (*Booking, error) {
	booking, err := s.doTransition(ctx, bookingID, to)
	metrics.RecordTransition(string(to), transitionOutcome(err))
	if err != nil {
		return nil, err
	}

	logger.Info("Booking status changed", "booking_id", bookingID, "class_id", booking.ClassID, "status", to)
	return booking, nil
}

func (s *service) doTransition(ctx context.Context, bookingID string, to Status) (*Booking, error) {
	current, err := s.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, s.storageFailure("get booking", err, "booking_id", bookingID)
	}

	if !current.Status.CanTransitionTo(to) {
		logger.Debug("Transition rejected", "booking_id", bookingID, "from", current.Status, "to", to)
		return nil, &InvalidTransitionError{BookingID: bookingID, From: current.Status, To: to}
	}

	updated, err := s.ledger.SetStatus(ctx, bookingID, to)
	if err != nil {
		if IsRejection(err) {
			logger.Debug("Transition rejected", "booking_id", bookingID, "to", to, "error", err)
			return nil, err
		}
		return nil, s.storageFailure("set booking status", err, "booking_id", bookingID)
	}

	return updated, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	b, err := s.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, s.storageFailure("get booking", err, "booking_id", bookingID)
	}
	return b, nil
}

func (s *service) ListMemberBookings(ctx context.Context, memberID string) ([]Booking, error) {
	bookings, err := s.ledger.ListByMember(ctx, memberID)
	if err != nil {
		return nil, s.storageFailure("list member bookings", err, "member_id", memberID)
	}
	return bookings, nil
}

func (s *service) ListClassBookings(ctx context.Context, gymID, classID string) ([]Booking, error) {
	class, err := s.ledger.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, s.storageFailure("get class", err, "class_id", classID)
	}
	if class.GymID != gymID {
		return nil, ErrClassNotFound
	}

	bookings, err := s.ledger.ListByClass(ctx, classID)
	if err != nil {
		return nil, s.storageFailure("list class bookings", err, "class_id", classID)
	}
	return bookings, nil
}

func (s *service) AttendanceStats(ctx context.Context, gymID string, from, to time.Time) ([]AttendanceStats, error) {
	stats, err := s.ledger.AttendanceByDay(ctx, gymID, from, to)
	if err != nil {
		return nil, s.storageFailure("attendance by day", err, "gym_id", gymID)
	}
	return stats, nil
}

func (s *service) storageFailure(op string, err error, args ...any) error {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}

	// The caller went away; the store did nothing wrong.
	if errors.Is(err, context.Canceled) {
		logger.Debug("Booking request canceled", append([]any{"op", op}, args...)...)
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}

	logger.Error("Booking storage failure", append([]any{"op", op, "error", err}, args...)...)
	return &StorageError{Op: op, Err: err}
}

func reservationOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeReserved
	case errors.Is(err, ErrAlreadyBooked):
		return outcomeAlreadyBooked
	case errors.Is(err, ErrFullyBooked):
		return outcomeFullyBooked
	case errors.Is(err, ErrClassNotFound):
		return outcomeClassNotFound
	case errors.Is(err, ErrBusy):
		return outcomeBusy
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	default:
		return outcomeStorageFailure
	}
}

func transitionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	default:
		return outcomeStorageFailure
	}
}
