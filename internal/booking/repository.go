package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classbook/internal/db"
	"classbook/internal/gym"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const reservedPerMemberIndex = "bookings_one_reserved_per_member"

// PostgresLedger stores bookings in the bookings table. The partial unique
// index on (class_id, member_id) WHERE status = 'reserved' backs the
// one-reservation-per-member rule even if the class lock is bypassed.
type PostgresLedger struct {
	db *sqlx.DB
}

func NewPostgresLedger(db *sqlx.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (r *PostgresLedger) GetClass(ctx context.Context, classID string) (*gym.ClassSession, error) {
	query := `
		SELECT id, gym_id, title, starts_at, ends_at, capacity, instructor, created_at
		FROM class_sessions
		WHERE id = $1
	`

	var class gym.ClassSession
	if err := r.db.GetContext(ctx, &class, query, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}

	return &class, nil
}

func (r *PostgresLedger) CountReservedForClass(ctx context.Context, classID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE class_id = $1 AND status = 'reserved'
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count reserved: %w", err)
	}

	return count, nil
}

func (r *PostgresLedger) FindReservedBooking(ctx context.Context, classID, memberID string) (*Booking, error) {
	query := `
		SELECT id, gym_id, class_id, member_id, status, created_at, updated_at
		FROM bookings
		WHERE class_id = $1 AND member_id = $2 AND status = 'reserved'
	`

	var b Booking
	if err := r.db.GetContext(ctx, &b, query, classID, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reserved booking: %w", err)
	}

	return &b, nil
}

func (r *PostgresLedger) InsertBooking(ctx context.Context, gymID, classID, memberID string) (*Booking, error) {
	query := `
		INSERT INTO bookings (id, gym_id, class_id, member_id, status)
		VALUES ($1, $2, $3, $4, 'reserved')
		RETURNING id, gym_id, class_id, member_id, status, created_at, updated_at
	`

	var b Booking
	err := r.db.GetContext(ctx, &b, query, uuid.NewString(), gymID, classID, memberID)
	if err != nil {
		if db.IsUniqueViolation(err, reservedPerMemberIndex) {
			return nil, ErrDuplicateReservation
		}
		if db.IsForeignKeyViolation(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	return &b, nil
}

func (r *PostgresLedger) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	query := `
		SELECT id, gym_id, class_id, member_id, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var b Booking
	if err := r.db.GetContext(ctx, &b, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &b, nil
}

// SetStatus moves a booking to status with a compare-and-set on the
// current status, so two concurrent transitions cannot both succeed.
func (r *PostgresLedger) SetStatus(ctx context.Context, bookingID string, status Status) (*Booking, error) {
	current, err := r.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, &InvalidTransitionError{BookingID: bookingID, From: current.Status, To: status}
	}

	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING id, gym_id, class_id, member_id, status, created_at, updated_at
	`

	var b Booking
	err = r.db.GetContext(ctx, &b, query, bookingID, string(status), string(current.Status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Someone else moved it first.
			latest, getErr := r.GetBooking(ctx, bookingID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &InvalidTransitionError{BookingID: bookingID, From: latest.Status, To: status}
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	return &b, nil
}

func (r *PostgresLedger) ListByMember(ctx context.Context, memberID string) ([]Booking, error) {
	query := `
		SELECT id, gym_id, class_id, member_id, status, created_at, updated_at
		FROM bookings
		WHERE member_id = $1
		ORDER BY created_at DESC
	`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, memberID); err != nil {
		return nil, fmt.Errorf("list member bookings: %w", err)
	}

	return bookings, nil
}

func (r *PostgresLedger) ListByClass(ctx context.Context, classID string) ([]Booking, error) {
	query := `
		SELECT id, gym_id, class_id, member_id, status, created_at, updated_at
		FROM bookings
		WHERE class_id = $1
		ORDER BY created_at ASC
	`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, classID); err != nil {
		return nil, fmt.Errorf("list class bookings: %w", err)
	}

	return bookings, nil
}

// AttendanceByDay buckets a gym's bookings by the UTC day their class starts,
// for classes starting in [from, to).
func (r *PostgresLedger) AttendanceByDay(ctx context.Context, gymID string, from, to time.Time) ([]AttendanceStats, error) {
	query := `
SELECT
  TO_CHAR(DATE(cs.starts_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
  COUNT(*) FILTER (WHERE b.status = 'reserved')  AS reserved,
  COUNT(*) FILTER (WHERE b.status = 'cancelled') AS cancelled,
  COUNT(*) FILTER (WHERE b.status = 'attended')  AS attended,
  COUNT(*) FILTER (WHERE b.status = 'no_show')   AS no_show
FROM bookings b
JOIN class_sessions cs ON cs.id = b.class_id
WHERE b.gym_id = $1 AND cs.starts_at >= $2 AND cs.starts_at < $3
GROUP BY day
ORDER BY day;
`

	stats := []AttendanceStats{}
	if err := r.db.SelectContext(ctx, &stats, query, gymID, from, to); err != nil {
		return nil, fmt.Errorf("attendance by day: %w", err)
	}

	return stats, nil
}
