package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"classbook/internal/gym"

	"github.com/google/uuid"
)

// MemoryLedger keeps bookings in process memory. Classes are resolved
// through a ClassReader, normally the gym MemoryRepository.
type MemoryLedger struct {
	mu       sync.RWMutex
	classes  ClassReader
	now      func() time.Time
	bookings map[string]*Booking
}

func NewMemoryLedger(classes ClassReader) *MemoryLedger {
	return &MemoryLedger{
		classes:  classes,
		now:      time.Now,
		bookings: make(map[string]*Booking),
	}
}

func (l *MemoryLedger) GetClass(ctx context.Context, classID string) (*gym.ClassSession, error) {
	class, err := l.classes.GetClassByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gym.ErrClassNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

func (l *MemoryLedger) CountReservedForClass(ctx context.Context, classID string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, b := range l.bookings {
		if b.ClassID == classID && b.Status == StatusReserved {
			count++
		}
	}
	return count, nil
}

func (l *MemoryLedger) FindReservedBooking(ctx context.Context, classID, memberID string) (*Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b := l.findReservedLocked(classID, memberID); b != nil {
		out := *b
		return &out, nil
	}
	return nil, nil
}

func (l *MemoryLedger) findReservedLocked(classID, memberID string) *Booking {
	for _, b := range l.bookings {
		if b.ClassID == classID && b.MemberID == memberID && b.Status == StatusReserved {
			return b
		}
	}
	return nil
}

func (l *MemoryLedger) InsertBooking(ctx context.Context, gymID, classID, memberID string) (*Booking, error) {
	if _, err := l.GetClass(ctx, classID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findReservedLocked(classID, memberID) != nil {
		return nil, ErrDuplicateReservation
	}

	now := l.now()
	b := &Booking{
		ID:        uuid.NewString(),
		GymID:     gymID,
		ClassID:   classID,
		MemberID:  memberID,
		Status:    StatusReserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.bookings[b.ID] = b

	out := *b
	return &out, nil
}

func (l *MemoryLedger) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, exists := l.bookings[bookingID]
	if !exists {
		return nil, ErrBookingNotFound
	}

	out := *b
	return &out, nil
}

func (l *MemoryLedger) SetStatus(ctx context.Context, bookingID string, status Status) (*Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.bookings[bookingID]
	if !exists {
		return nil, ErrBookingNotFound
	}
	if !b.Status.CanTransitionTo(status) {
		return nil, &InvalidTransitionError{BookingID: bookingID, From: b.Status, To: status}
	}

	b.Status = status
	b.UpdatedAt = l.now()

	out := *b
	return &out, nil
}

func (l *MemoryLedger) ListByMember(ctx context.Context, memberID string) ([]Booking, error) {
	bookings := l.filter(func(b *Booking) bool { return b.MemberID == memberID })
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (l *MemoryLedger) ListByClass(ctx context.Context, classID string) ([]Booking, error) {
	bookings := l.filter(func(b *Booking) bool { return b.ClassID == classID })
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (l *MemoryLedger) AttendanceByDay(ctx context.Context, gymID string, from, to time.Time) ([]AttendanceStats, error) {
	byDay := make(map[string]*AttendanceStats)

	for _, b := range l.filter(func(b *Booking) bool { return b.GymID == gymID }) {
		class, err := l.GetClass(ctx, b.ClassID)
		if err != nil {
			return nil, err
		}
		if class.StartsAt.Before(from) || !class.StartsAt.Before(to) {
			continue
		}

		day := class.StartsAt.UTC().Format(time.DateOnly)
		stats, ok := byDay[day]
		if !ok {
			stats = &AttendanceStats{Day: day}
			byDay[day] = stats
		}

		switch b.Status {
		case StatusReserved:
			stats.Reserved++
		case StatusCancelled:
			stats.Cancelled++
		case StatusAttended:
			stats.Attended++
		case StatusNoShow:
			stats.NoShow++
		}
	}

	out := make([]AttendanceStats, 0, len(byDay))
	for _, stats := range byDay {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })

	return out, nil
}

func (l *MemoryLedger) filter(keep func(*Booking) bool) []Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []Booking{}
	for _, b := range l.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}
