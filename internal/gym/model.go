package gym

import "time"

type Gym struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassSession is a scheduled class with a fixed number of seats.
// Capacity does not change while bookings reference the class.
type ClassSession struct {
	ID         string    `db:"id" json:"id"`
	GymID      string    `db:"gym_id" json:"gym_id"`
	Title      string    `db:"title" json:"title"`
	StartsAt   time.Time `db:"starts_at" json:"starts_at"`
	EndsAt     time.Time `db:"ends_at" json:"ends_at"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Instructor *string   `db:"instructor" json:"instructor,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type ClassWithAvailability struct {
	ClassSession
	ReservedCount int  `json:"reserved_count"`
	Available     int  `json:"available"`
	IsFull        bool `json:"is_full"`
}

type CreateGymRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64"`
	Name string `json:"name" binding:"required" validate:"required,max=200"`
}

type CreateClassRequest struct {
	Title      string  `json:"title" binding:"required" validate:"required,max=200"`
	StartsAt   string  `json:"starts_at" binding:"required" validate:"required"`
	EndsAt     string  `json:"ends_at" binding:"required" validate:"required"`
	Capacity   int     `json:"capacity" binding:"required,min=1" validate:"gte=1,lte=1000"`
	Instructor *string `json:"instructor" validate:"omitempty,max=200"`
}
