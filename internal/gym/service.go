package gym

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGymNotFound   = errors.New("gym not found")
	ErrGymExists     = errors.New("gym already exists")
	ErrClassNotFound = errors.New("class not found")
	ErrClassInvalid  = errors.New("invalid class session")
)

// ReservationCounter reports how many seats of a class are currently reserved.
type ReservationCounter interface {
	CountReservedForClass(ctx context.Context, classID string) (int, error)
}

type Service interface {
	CreateGym(ctx context.Context, req CreateGymRequest) (*Gym, error)
	GetGym(ctx context.Context, id string) (*Gym, error)
	CreateClass(ctx context.Context, gymID string, req CreateClassRequest) (*ClassSession, error)
	GetClass(ctx context.Context, id string) (*ClassWithAvailability, error)
	ListClasses(ctx context.Context, gymID string, onlyUpcoming bool) ([]ClassWithAvailability, error)
}

type service struct {
	repo    Repository
	counter ReservationCounter
	now     func() time.Time
}

func NewService(repo Repository, counter ReservationCounter) Service {
	return &service{
		repo:    repo,
		counter: counter,
		now:     time.Now,
	}
}

func (s *service) CreateGym(ctx context.Context, req CreateGymRequest) (*Gym, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	return s.repo.CreateGym(ctx, id, req.Name)
}

func (s *service) GetGym(ctx context.Context, id string) (*Gym, error) {
	return s.repo.GetGymByID(ctx, id)
}

func (s *service) CreateClass(ctx context.Context, gymID string, req CreateClassRequest) (*ClassSession, error) {
	if _, err := s.repo.GetGymByID(ctx, gymID); err != nil {
		return nil, err
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, ErrClassInvalid
	}

	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return nil, ErrClassInvalid
	}

	if !endsAt.After(startsAt) {
		return nil, ErrClassInvalid
	}

	if req.Capacity <= 0 {
		return nil, ErrClassInvalid
	}

	return s.repo.CreateClass(ctx, ClassSession{
		ID:         uuid.NewString(),
		GymID:      gymID,
		Title:      req.Title,
		StartsAt:   startsAt.UTC(),
		EndsAt:     endsAt.UTC(),
		Capacity:   req.Capacity,
		Instructor: req.Instructor,
	})
}

func (s *service) GetClass(ctx context.Context, id string) (*ClassWithAvailability, error) {
	class, err := s.repo.GetClassByID(ctx, id)
	if err != nil {
		return nil, err
	}

	withAvailability, err := s.availability(ctx, *class)
	if err != nil {
		return nil, err
	}

	return &withAvailability, nil
}

func (s *service) ListClasses(ctx context.Context, gymID string, onlyUpcoming bool) ([]ClassWithAvailability, error) {
	if _, err := s.repo.GetGymByID(ctx, gymID); err != nil {
		return nil, err
	}

	var from time.Time
	if onlyUpcoming {
		from = s.now()
	}

	classes, err := s.repo.ListClassesByGym(ctx, gymID, from)
	if err != nil {
		return nil, err
	}

	result := make([]ClassWithAvailability, 0, len(classes))
	for _, class := range classes {
		withAvailability, err := s.availability(ctx, class)
		if err != nil {
			return nil, err
		}
		result = append(result, withAvailability)
	}

	return result, nil
}

func (s *service) availability(ctx context.Context, class ClassSession) (ClassWithAvailability, error) {
	reserved, err := s.counter.CountReservedForClass(ctx, class.ID)
	if err != nil {
		return ClassWithAvailability{}, err
	}

	available := class.Capacity - reserved
	if available < 0 {
		available = 0
	}

	return ClassWithAvailability{
		ClassSession:  class,
		ReservedCount: reserved,
		Available:     available,
		IsFull:        available == 0,
	}, nil
}
