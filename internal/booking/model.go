package booking

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusReserved  Status = "reserved"
	StatusCancelled Status = "cancelled"
	StatusAttended  Status = "attended"
	StatusNoShow    Status = "no_show"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusReserved, StatusCancelled, StatusAttended, StatusNoShow:
		return st, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s != StatusReserved
}

// CanTransitionTo reports whether s -> next is a legal lifecycle step.
// The lifecycle only moves forward: reserved -> cancelled | attended | no_show.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusReserved {
		return false
	}
	switch next {
	case StatusCancelled, StatusAttended, StatusNoShow:
		return true
	default:
		return false
	}
}

type Booking struct {
	ID        string    `db:"id" json:"id"`
	GymID     string    `db:"gym_id" json:"gym_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	MemberID  string    `db:"member_id" json:"member_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceStats is one day of booking outcomes for a gym, keyed by the
// UTC day the class starts.
type AttendanceStats struct {
	Day       string `db:"day" json:"day"`
	Reserved  int    `db:"reserved" json:"reserved"`
	Cancelled int    `db:"cancelled" json:"cancelled"`
	Attended  int    `db:"attended" json:"attended"`
	NoShow    int    `db:"no_show" json:"no_show"`
}

type ReserveResponse struct {
	Booking       *Booking `json:"booking"`
	AlreadyBooked bool     `json:"already_booked"`
}

type AttendanceResponse struct {
	From time.Time         `json:"from"`
	To   time.Time         `json:"to"`
	Data []AttendanceStats `json:"data"`
}
