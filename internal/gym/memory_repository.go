package gym

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps gyms and classes in process memory.
// It backs LEDGER_BACKEND=memory and the booking tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	now     func() time.Time
	gyms    map[string]*Gym
	classes map[string]*ClassSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:     time.Now,
		gyms:    make(map[string]*Gym),
		classes: make(map[string]*ClassSession),
	}
}

func (r *MemoryRepository) CreateGym(ctx context.Context, id, name string) (*Gym, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.gyms[id]; exists {
		return nil, ErrGymExists
	}

	g := &Gym{ID: id, Name: name, CreatedAt: r.now()}
	r.gyms[id] = g

	out := *g
	return &out, nil
}

func (r *MemoryRepository) GetGymByID(ctx context.Context, id string) (*Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.gyms[id]
	if !exists {
		return nil, ErrGymNotFound
	}

	out := *g
	return &out, nil
}

func (r *MemoryRepository) CreateClass(ctx context.Context, class ClassSession) (*ClassSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.gyms[class.GymID]; !exists {
		return nil, ErrGymNotFound
	}

	class.CreatedAt = r.now()
	c := class
	r.classes[class.ID] = &c

	return &class, nil
}

func (r *MemoryRepository) GetClassByID(ctx context.Context, id string) (*ClassSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.classes[id]
	if !exists {
		return nil, ErrClassNotFound
	}

	out := *c
	return &out, nil
}

func (r *MemoryRepository) ListClassesByGym(ctx context.Context, gymID string, from time.Time) ([]ClassSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := []ClassSession{}
	for _, c := range r.classes {
		if c.GymID != gymID {
			continue
		}
		if !from.IsZero() && c.StartsAt.Before(from) {
			continue
		}
		classes = append(classes, *c)
	}

	sort.Slice(classes, func(i, j int) bool {
		return classes[i].StartsAt.Before(classes[j].StartsAt)
	})

	return classes, nil
}
